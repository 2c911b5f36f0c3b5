package server

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/infra/monitoring"
	"github.com/pharens/pharens-ai/engine/infra/server/appstate"
	"github.com/pharens/pharens-ai/engine/infra/server/middleware/ratelimit"
	"github.com/pharens/pharens-ai/engine/infra/server/middleware/size"
	"github.com/pharens/pharens-ai/engine/infra/server/router"
	analyticsrouter "github.com/pharens/pharens-ai/engine/infra/server/router/analytics"
	chatrouter "github.com/pharens/pharens-ai/engine/infra/server/router/chat"
	knowledgerouter "github.com/pharens/pharens-ai/engine/infra/server/router/knowledge"
	leadsrouter "github.com/pharens/pharens-ai/engine/infra/server/router/leads"
	vapirouter "github.com/pharens/pharens-ai/engine/infra/server/router/vapi"
	"github.com/pharens/pharens-ai/engine/infra/server/routes"
	"github.com/pharens/pharens-ai/pkg/config"
	"github.com/pharens/pharens-ai/pkg/logger"
)

const maxBodyBytes = 1 << 20

// RouterOptions are the optional middlewares; nil fields are skipped.
type RouterOptions struct {
	Monitoring *monitoring.Service
	RateLimit  *ratelimit.Manager
	Logger     logger.Logger
}

// RegisterRoutes mounts every API endpoint on r.
func RegisterRoutes(r *gin.Engine, state *appstate.State) {
	r.GET(routes.Health(), CreateHealthHandler(state))
	api := r.Group(routes.Base())
	api.Use(size.BodySizeLimiter(maxBodyBytes))
	chatrouter.Register(api)
	knowledgerouter.Register(api)
	vapirouter.Register(api)
	leadsrouter.Register(api)
	analyticsrouter.Register(api)
}

// BuildRouter assembles the gin engine in middleware order: recovery, rate
// limiting, metrics, logging, CORS, state, errors.
func BuildRouter(cfg *config.Config, state *appstate.State, opts RouterOptions) (*gin.Engine, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit.Middleware())
	}
	if opts.Monitoring != nil && opts.Monitoring.IsInitialized() {
		r.Use(opts.Monitoring.GinMiddleware())
	}
	log := opts.Logger
	if log == nil {
		log = logger.FromContext(context.Background())
	}
	r.Use(LoggerMiddleware(log))
	if cfg.Server.CORSEnabled {
		r.Use(CORSMiddleware(cfg.Server.CORS))
	}
	r.Use(appstate.StateMiddleware(state))
	r.Use(router.ErrorHandler())
	if opts.Monitoring != nil {
		r.GET(opts.Monitoring.Path(), gin.WrapH(opts.Monitoring.ExporterHandler()))
	}
	RegisterRoutes(r, state)
	return r, nil
}
