package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/splitcheck/splitcheck/internal/config"
	"github.com/splitcheck/splitcheck/internal/logger"
)

// maxBodyBytes bounds request bodies carrying inline records.
const maxBodyBytes = 64 << 20

type Server struct {
	cfg       *config.Config
	token     string
	router    *http.ServeMux
	metrics   *metrics
	startTime time.Time
}

func New(cfg *config.Config) *Server {
	srv := &Server{
		cfg:       cfg,
		token:     cfg.Server.Token,
		router:    http.NewServeMux(),
		metrics:   newMetrics(),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/api/analyze", s.handleAnalyze)
	s.router.HandleFunc("/api/null-test", s.handleNullTest)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	// Reads the configured dataset (protected)
	s.router.Handle("/api/analysis", s.authMiddleware(http.HandlerFunc(s.handleAnalysis)))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)

	logger.Log.WithFields(logrus.Fields{
		"addr":    addr,
		"dataset": s.cfg.Dataset.Path,
		"auth":    s.token != "",
	}).Info("splitcheck server listening")

	return http.ListenAndServe(addr, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}
