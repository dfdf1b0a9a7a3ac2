package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/config"
	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/storage"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/api/handlers"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/api/middleware"
)

type Server struct {
	cfg      *config.Config
	db       *database.Client
	storage  *storage.Client
	engine   *rota.Engine
	location *time.Location
	router   *gin.Engine
}

func New(cfg *config.Config, db *database.Client, storage *storage.Client, engine *rota.Engine, loc *time.Location) *Server {
	if cfg.Server.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		db:       db,
		storage:  storage,
		engine:   engine,
		location: loc,
		router:   gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestLogger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

	// "Authorization" must be allowed so the rota pages can send the JWT
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	talkHandler := handlers.NewTalkHandler(s.db.DB, s.engine)
	recorderHandler := handlers.NewRecorderHandler(s.db.DB)
	settingsHandler := handlers.NewSettingsHandler(s.db.DB)
	rotaHandler := handlers.NewRotaHandler(s.db.DB, s.engine, s.storage, s.location)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "talks-rota"})
	})

	secret := []byte(s.cfg.Server.JWTSecret)
	leader := middleware.RequireRole(middleware.RoleTeamLeader)

	v1 := s.router.Group("/api/v1")
	{
		// ==========================================
		// PUBLIC ROUTES (No Token Required)
		// ==========================================
		v1.GET("/talks", talkHandler.GetTalks)
		v1.GET("/talks/:id", talkHandler.GetTalk)
		v1.GET("/recorders", recorderHandler.GetRecorders)
		v1.GET("/recorders/:name", recorderHandler.GetRecorder)
		v1.GET("/settings", settingsHandler.GetSettings)
		v1.GET("/rota/by-venue", rotaHandler.ByVenue)
		v1.GET("/rota/by-time", rotaHandler.ByTime)
		v1.GET("/rota/by-recorder", rotaHandler.ByRecorder)
		v1.GET("/rota/runs", rotaHandler.GetRuns)

		// ==========================================
		// PROTECTED ROUTES (JWT Token Required)
		// ==========================================
		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(secret))
		{
			// --- ANY CREW MEMBER ---
			protected.GET("/rota/exports", rotaHandler.GetExports)
			protected.GET("/rota/files/*key", rotaHandler.DownloadExport)

			// --- TEAM LEADER (and Admin) ---
			protected.POST("/talks", leader, talkHandler.CreateTalk)
			protected.PUT("/talks/:id/recorder", leader, talkHandler.AssignRecorder)
			protected.DELETE("/talks/:id/recorder", leader, talkHandler.UnassignRecorder)

			protected.PUT("/recorders/:name", leader, recorderHandler.PutRecorder)
			protected.PUT("/settings/:key", leader, settingsHandler.PutSetting)

			protected.POST("/rota/generate", leader, rotaHandler.Generate)
			protected.POST("/rota/continue", leader, rotaHandler.Continue)
			protected.POST("/rota/export", leader, rotaHandler.Export)
		}
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on the given address.
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}
