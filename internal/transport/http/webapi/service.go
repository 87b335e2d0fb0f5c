package webapi

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"artifact-server-go/internal/domain/artifact/service"
	"artifact-server-go/internal/domain/auth"
	"artifact-server-go/internal/platform/config"
	"artifact-server-go/internal/platform/logging"
	"artifact-server-go/internal/platform/system"
	httptransport "artifact-server-go/internal/transport/http"
)

const sessionCookie = "token"

// EventCounter reports how many domain events of each type were recorded.
type EventCounter interface {
	CountByType(ctx context.Context) (map[string]int64, error)
}

// Service exposes the artifact API over HTTP.
type Service struct {
	config    *config.Config
	logger    *logging.Logger
	artifacts *service.ArtifactService
	tokens    *auth.Manager
	events    EventCounter
	startedAt time.Time
}

// NewService creates the web API service. events may be nil; the health
// endpoint then omits event counts.
func NewService(cfg *config.Config, logger *logging.Logger, artifacts *service.ArtifactService, tokens *auth.Manager, events EventCounter) *Service {
	return &Service{
		config:    cfg,
		logger:    logger,
		artifacts: artifacts,
		tokens:    tokens,
		events:    events,
		startedAt: time.Now(),
	}
}

// Register attaches all routes to the engine.
func (s *Service) Register(engine *gin.Engine) {
	engine.GET("/", s.handleRoot)
	engine.GET("/healthz", s.handleHealth)

	engine.POST("/jwt", s.handleIssueToken)
	engine.POST("/logout", s.handleLogout)

	engine.POST("/history", s.handleCreateArtifact)
	engine.GET("/history", s.handleListArtifacts)

	engine.GET("/artifact/:id", s.handleGetArtifact)
	engine.PATCH("/artifact/:id", s.handleUpdateArtifact)
	engine.DELETE("/artifact/:id", s.handleDeleteArtifact)
	engine.PATCH("/artifact/:id/like", s.handleToggleLike)

	engine.GET("/my-artifacts", s.authRequired(), s.handleMyArtifacts)
	engine.GET("/liked-artifacts", s.authRequired(), s.handleLikedArtifacts)

	s.logger.InfoTag("http", "web API routes registered")
}

// authRequired reads the session cookie and verifies it. A missing cookie
// fails before any decode is attempted. The verified email is stored in
// the request context for the handler.
func (s *Service) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(sessionCookie)
		if err != nil || raw == "" {
			httptransport.FailWith(c, http.StatusUnauthorized, "unauthorized access")
			c.Abort()
			return
		}

		identity, err := s.tokens.Verify(raw)
		if err != nil {
			httptransport.FailWith(c, http.StatusUnauthorized, "unauthorized access")
			c.Abort()
			return
		}

		c.Set("email", identity.Email)
		c.Next()
	}
}

func (s *Service) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, "Artifact server is running")
}

func (s *Service) handleHealth(c *gin.Context) {
	cpuUsage, err := system.GetSystemCPUUsage()
	if err != nil {
		s.logger.WarnTag("http", "failed to read CPU usage: %v", err)
	}
	memUsage, err := system.GetSystemMemoryUsage()
	if err != nil {
		s.logger.WarnTag("http", "failed to read memory usage: %v", err)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	payload := gin.H{
		"status":         "ok",
		"uptime":         time.Since(s.startedAt).String(),
		"cpu_percent":    cpuUsage,
		"memory_percent": memUsage,
		"process_alloc":  stats.Alloc,
		"goroutines":     runtime.NumGoroutine(),
	}

	if s.events != nil {
		counts, err := s.events.CountByType(c.Request.Context())
		if err != nil {
			s.logger.WarnTag("http", "failed to count events: %v", err)
		} else {
			payload["events"] = counts
		}
	}

	c.JSON(http.StatusOK, payload)
}

// handleIssueToken signs the claims the client sends and sets the session
// cookie. Claim content is caller-controlled by contract.
func (s *Service) handleIssueToken(c *gin.Context) {
	var claims map[string]interface{}
	if err := c.ShouldBindJSON(&claims); err != nil {
		httptransport.FailWith(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.tokens.Issue(claims)
	if err != nil {
		httptransport.Fail(c, err)
		return
	}

	c.SetCookie(sessionCookie, token, int(s.tokens.TTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleLogout clears the session cookie. Previously issued tokens stay
// valid until expiry; there is no server-side revocation.
func (s *Service) handleLogout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Service) handleCreateArtifact(c *gin.Context) {
	var req createArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.FailWith(c, http.StatusBadRequest, "invalid request body")
		return
	}

	artifact, err := s.artifacts.Create(c.Request.Context(), req.descriptive(), req.AddedBy)
	if err != nil {
		httptransport.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"insertedId": artifact.ID})
}

func (s *Service) handleListArtifacts(c *gin.Context) {
	artifacts, err := s.artifacts.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		httptransport.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artifacts)
}

// handleMyArtifacts lists artifacts added by the requested email. The
// email must match the verified identity of the session.
func (s *Service) handleMyArtifacts(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		httptransport.FailWith(c, http.StatusBadRequest, "email is required")
		return
	}

	if identity := c.GetString("email"); identity != email {
		httptransport.FailWith(c, http.StatusForbidden, "forbidden access")
		return
	}

	artifacts, err := s.artifacts.ListByCreator(c.Request.Context(), email)
	if err != nil {
		httptransport.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artifacts)
}

// handleLikedArtifacts lists artifacts liked by the session identity.
// An empty result is a 404, not an empty array.
func (s *Service) handleLikedArtifacts(c *gin.Context) {
	artifacts, err := s.artifacts.ListLiked(c.Request.Context(), c.GetString("email"))
	if err != nil {
		httptransport.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artifacts)
}

func (s *Service) handleGetArtifact(c *gin.Context) {
	artifact, err := s.artifacts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httptransport.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

func (s *Service) handleUpdateArtifact(c *gin.Context) {
	var req updateArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.FailWith(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.artifacts.Update(c.Request.Context(), c.Param("id"), req.descriptive()); err != nil {
		httptransport.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Service) handleDeleteArtifact(c *gin.Context) {
	if err := s.artifacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httptransport.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Service) handleToggleLike(c *gin.Context) {
	var req toggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.FailWith(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.artifacts.ToggleLike(c.Request.Context(), c.Param("id"), req.Email)
	if err != nil {
		httptransport.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": result.Liked})
}
