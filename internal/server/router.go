package server

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fixloop/fixloop-backend/internal/http/handlers"
	"github.com/fixloop/fixloop-backend/internal/http/middleware"
	"github.com/fixloop/fixloop-backend/internal/pkg/envutil"
	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
	"github.com/fixloop/fixloop-backend/internal/services"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	DB        *gorm.DB
	Tenants   services.TenantService
	Configs   services.ConfigService
	Runs      services.ScoreRunService
	Tasks     services.TaskService
	FixScores services.FixScoreService
	Log       *logger.Logger
}

// NewRouter builds the gin engine with middleware and all route groups.
func NewRouter(deps Deps) *gin.Engine {
	if envutil.GetEnv("GIN_MODE", "", deps.Log) == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog(deps.Log))
	r.Use(middleware.CORS(envutil.GetEnv("CORS_ORIGINS", "", deps.Log)))

	api := r.Group("/api")
	handlers.NewHealthHandler(deps.DB).Register(api)
	handlers.NewTenantHandler(deps.Tenants, deps.Log).Register(api)
	handlers.NewConfigHandler(deps.Configs, deps.Log).Register(api)
	handlers.NewScoreRunHandler(deps.Runs, deps.Log).Register(api)
	handlers.NewTaskHandler(deps.Tasks, deps.FixScores, deps.Log).Register(api)
	return r
}
