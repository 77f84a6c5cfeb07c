package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/fixloop/fixloop-backend/internal/domain"
)

// FieldChange is one leaf-level difference between two payloads.
type FieldChange struct {
	Path   string      `json:"path"`
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

// Diff deep-compares two JSON payloads and returns the leaf changes in
// deterministic path order. Pure function, no side effects.
func Diff(before, after []byte) ([]FieldChange, error) {
	const op = "config.Diff"
	var a, b interface{}
	if len(before) > 0 {
		if err := json.Unmarshal(before, &a); err != nil {
			return nil, domain.NewError(domain.CodeValidation, op, "malformed before payload", err)
		}
	}
	if len(after) > 0 {
		if err := json.Unmarshal(after, &b); err != nil {
			return nil, domain.NewError(domain.CodeValidation, op, "malformed after payload", err)
		}
	}
	changes := []FieldChange{}
	diffValue("", a, b, &changes)
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func diffValue(path string, a, b interface{}, out *[]FieldChange) {
	if reflect.DeepEqual(a, b) {
		return
	}
	am, aIsMap := a.(map[string]interface{})
	bm, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		keys := map[string]bool{}
		for k := range am {
			keys[k] = true
		}
		for k := range bm {
			keys[k] = true
		}
		for k := range keys {
			diffValue(joinPath(path, k), am[k], bm[k], out)
		}
		return
	}
	as, aIsSlice := a.([]interface{})
	bs, bIsSlice := b.([]interface{})
	if aIsSlice && bIsSlice {
		n := len(as)
		if len(bs) > n {
			n = len(bs)
		}
		for i := 0; i < n; i++ {
			var av, bv interface{}
			if i < len(as) {
				av = as[i]
			}
			if i < len(bs) {
				bv = bs[i]
			}
			diffValue(fmt.Sprintf("%s[%d]", path, i), av, bv, out)
		}
		return
	}
	*out = append(*out, FieldChange{Path: path, Before: a, After: b})
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
