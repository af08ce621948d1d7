package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartcity/firewatch/internal/alerts"
	"github.com/smartcity/firewatch/internal/auth"
	"github.com/smartcity/firewatch/internal/orchestrator"
)

// Server exposes the orchestrator's state and commands over HTTP. Reads hand
// out snapshots; writes go through the orchestrator's serialized command
// methods.
type Server struct {
	router *gin.Engine
	orch   *orchestrator.Orchestrator
	auth   *auth.Service
	hub    *Hub
	events EventsStatus
}

// EventsStatus reports event-bus connectivity for the health endpoint.
type EventsStatus interface {
	IsConnected() bool
}

// Config holds server options. Events is optional; when set, the health
// endpoint reports the event-bus connection state alongside the mode.
type Config struct {
	AllowedOrigins []string
	Debug          bool
	Events         EventsStatus
}

// New creates the API server and hooks the stream hub into the
// orchestrator's change feed.
func New(cfg Config, orch *orchestrator.Orchestrator, authSvc *auth.Service) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.Default(),
		orch:   orch,
		auth:   authSvc,
		hub:    NewHub(),
		events: cfg.Events,
	}
	orch.OnChange(s.hub.Broadcast)

	s.router.Use(corsMiddleware(cfg.AllowedOrigins))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/login", s.login)

		v1.GET("/state", s.getState)
		v1.GET("/cameras", s.listCameras)
		v1.GET("/cameras/:id", s.getCamera)
		v1.GET("/alerts", s.listAlerts)
		v1.GET("/ws", s.handleWebSocket)

		v1.POST("/alerts/:id/open", s.authMiddleware(), s.openAlert)
		v1.POST("/detail/close", s.authMiddleware(), s.closeDetail)
		v1.POST("/alerts/:id/resolve", s.authMiddleware(), s.resolveAlert)
		v1.POST("/alerts/:id/respond", s.authMiddleware(), s.requestResponse)
		v1.POST("/scan", s.authMiddleware(), s.requestScan)
		v1.POST("/mode/service", s.authMiddleware(), s.enableServiceMode)
	}
}

// Handler returns the underlying HTTP handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown disconnects all stream subscribers.
func (s *Server) Shutdown() {
	s.hub.Close()
}

// Middleware

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		claims, err := s.auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("operator", claims.Username)
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := "*"
	if len(origins) == 1 {
		allowed = origins[0]
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Handlers

func (s *Server) healthCheck(c *gin.Context) {
	resp := gin.H{
		"status":            "healthy",
		"mode":              s.orch.Mode().String(),
		"service_reachable": s.orch.ServiceReachable(),
	}
	if s.events != nil {
		resp["events_connected"] = s.events.IsConnected()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.Snapshot())
}

func (s *Server) listCameras(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cameras": s.orch.Snapshot().Cameras})
}

func (s *Server) getCamera(c *gin.Context) {
	id := c.Param("id")
	for _, cam := range s.orch.Snapshot().Cameras {
		if cam.ID == id {
			c.JSON(http.StatusOK, cam)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
}

func (s *Server) listAlerts(c *gin.Context) {
	snap := s.orch.Snapshot()

	var list []alerts.Alert
	switch c.Query("status") {
	case "active":
		list = snap.ActiveAlerts
	case "resolved":
		list = make([]alerts.Alert, 0)
		for _, a := range snap.Alerts {
			if a.Status == alerts.StatusResolved {
				list = append(list, a)
			}
		}
	default:
		list = snap.Alerts
	}

	c.JSON(http.StatusOK, gin.H{"alerts": list})
}

func (s *Server) openAlert(c *gin.Context) {
	snap, err := s.orch.OpenAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, orchestrator.ErrUnknownAlert) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) closeDetail(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.CloseDetail())
}

func (s *Server) resolveAlert(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.ResolveAlert(c.Param("id")))
}

func (s *Server) requestResponse(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.RequestResponse(c.Param("id")))
}

func (s *Server) requestScan(c *gin.Context) {
	snap, err := s.orch.RequestScan(c.Request.Context())
	if err != nil {
		if errors.Is(err, orchestrator.ErrServiceUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": "detection service unavailable", "mode": snap.Mode})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "mode": snap.Mode})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) enableServiceMode(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.EnableServiceMode())
}
