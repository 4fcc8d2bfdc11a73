package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"levelup/internal/engine"
)

// Store is the authoritative XP store behind the API.
type Store interface {
	AddXP(ctx context.Context, userID string, gain engine.XPGain) (int, error)
	FetchXP(ctx context.Context, userID string) (engine.XPSnapshot, error)
	SetXP(ctx context.Context, userID string, xp int) (engine.XPSnapshot, error)
	FetchPlan(ctx context.Context, userID string) (engine.SubscriptionPlan, error)
	SetPlan(ctx context.Context, userID string, plan engine.Plan) error
}

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

// Server exposes the XP store over HTTP.
type Server struct {
	store      Store
	levels     *engine.LevelTable
	logger     *log.Logger
	adminToken string
	router     *gin.Engine
}

type Options struct {
	Levels *engine.LevelTable
	Logger *log.Logger
	// AdminToken guards /api/admin when set.
	AdminToken string
}

// New creates a server over store.
func New(store Store, opts Options) *Server {
	if opts.Levels == nil {
		opts.Levels = engine.DefaultLevels
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:      store,
		levels:     opts.Levels,
		logger:     opts.Logger,
		adminToken: opts.AdminToken,
		router:     router,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/users/:id/xp", s.handleGetXP)
		api.POST("/users/:id/xp", s.handleAddXP)
		api.GET("/users/:id/plan", s.handleGetPlan)
	}

	admin := router.Group("/api/admin", s.requireAdmin)
	{
		admin.PUT("/users/:id/xp", s.handleSetXP)
		admin.PUT("/users/:id/plan", s.handleSetPlan)
	}

	return s
}

// Handler returns the router for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
