package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/db"
	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/ingest"
)

// Server exposes the stored applications over HTTP and lets an operator
// trigger a scrape run without shelling into the box.
type Server struct {
	Store *db.Store
	Echo  *echo.Echo

	config ingest.SourceConfig

	jobMu      sync.Mutex
	runningJob *backgroundJob
}

type backgroundJob struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"` // running, completed, failed
	StartedAt time.Time        `json:"started_at"`
	EndedAt   time.Time        `json:"ended_at,omitempty"`
	Stats     *ingest.RunStats `json:"stats,omitempty"`
	Error     string           `json:"error,omitempty"`
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func adminSecretFromEnv() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = err
			return
		}
		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Printf("ADMIN_SECRET is not set; using ephemeral secret: %s", adminSecretRuntime)
	})
	return adminSecretRuntime, adminSecretErr
}

func NewServer(store *db.Store, config ingest.SourceConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		Store:  store,
		Echo:   e,
		config: config,
	}

	e.GET("/health", s.handleHealth)
	e.GET("/api/applications", s.handleListApplications)
	e.GET("/api/applications/:reference", s.handleGetApplication)
	e.GET("/api/runs", s.handleListRuns)

	admin := e.Group("/api/admin", s.requireAdminSecret)
	admin.POST("/scrape", s.handleTriggerScrape)
	admin.GET("/scrape/status", s.handleScrapeStatus)

	return s
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	count, err := s.Store.Count(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "ok",
		"applications": count,
	})
}

func (s *Server) handleListApplications(c echo.Context) error {
	params := db.ListParams{
		Search: c.QueryParam("q"),
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		params.Limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil {
		params.Offset = v
	}

	apps, total, err := s.Store.List(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"applications": apps,
		"total":        total,
	})
}

func (s *Server) handleGetApplication(c echo.Context) error {
	reference := c.Param("reference")
	app, err := s.Store.GetByReference(c.Request().Context(), reference)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if app == nil {
		return echo.NewHTTPError(http.StatusNotFound, "application not found")
	}
	return c.JSON(http.StatusOK, app)
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit := 20
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		limit = v
	}
	runs, err := s.Store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) requireAdminSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecretFromEnv()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "admin secret unavailable")
		}
		if c.Request().Header.Get("X-Admin-Secret") != secret {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin secret")
		}
		return next(c)
	}
}

func (s *Server) handleTriggerScrape(c echo.Context) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.runningJob != nil && s.runningJob.Status == "running" {
		return c.JSON(http.StatusConflict, s.runningJob)
	}

	job := &backgroundJob{
		ID:        uuid.New().String(),
		Status:    "running",
		StartedAt: time.Now(),
	}
	s.runningJob = job

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		pipeline := ingest.NewPipeline(s.Store, s.config)
		stats, err := pipeline.Run(ctx)

		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		job.EndedAt = time.Now()
		job.Stats = &stats
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
		} else {
			job.Status = "completed"
		}
	}()

	return c.JSON(http.StatusAccepted, job)
}

func (s *Server) handleScrapeStatus(c echo.Context) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.runningJob == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no scrape job has run")
	}
	return c.JSON(http.StatusOK, s.runningJob)
}
