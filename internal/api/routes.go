package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/config"
	"github.com/yesmonga/karting-sub000/internal/metrics"
)

// Router handles HTTP routing
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logrus.Logger
}

// NewRouter creates a new router
func NewRouter(handler *Handler, cfg *config.Config, logger *logrus.Logger) *Router {
	return &Router{
		handler:    handler,
		middleware: NewMiddleware(logger),
		config:     cfg,
		logger:     logger,
	}
}

// Routes returns the router with all routes configured
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.API.CORSAllowedOrigins))

	router.Route(apiPrefix, func(router chi.Router) {
		router.Route("/races", func(router chi.Router) {
			router.Get("/", r.handler.ListRaces)
			router.Route("/{id}", func(router chi.Router) {
				router.Get("/", r.handler.GetRace)
				router.Get("/teams", r.handler.ListRaceTeams)
				router.Route("/teams/{kart}", func(router chi.Router) {
					router.Get("/laps", r.handler.GetLapChart)
					router.Get("/strategy", r.handler.GetStrategy)
					router.Get("/drivers", r.handler.GetDriverStats)
					router.Put("/stints/{n}/driver", r.handler.AssignStintDriver)
				})
			})
		})

		router.Post("/imports", r.handler.CreateImport)
		router.Get("/imports/stats", r.handler.GetImportStats)

		router.Route("/teams", func(router chi.Router) {
			router.Get("/", r.handler.ListTeams)
			router.Post("/", r.handler.CreateTeam)
			router.Get("/{id}/drivers", r.handler.ListDrivers)
			router.Post("/{id}/drivers", r.handler.CreateDriver)
		})

		router.Get("/drivers/{id}/ballast", r.handler.GetDriverBallast)

		router.Route("/live", func(router chi.Router) {
			router.Get("/", r.handler.GetLive)
			router.Get("/messages", r.handler.ListLiveMessages)
			router.Post("/messages", r.handler.PostLiveMessage)
		})
	})

	if r.config.Metrics.Enabled {
		router.Handle(r.config.Metrics.Path, metrics.Handler())
	}

	return router
}
