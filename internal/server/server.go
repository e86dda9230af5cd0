// Package server exposes health, last-run status and metrics over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dipwatch/internal/metrics"
	"dipwatch/internal/status"
)

func NewEngine(st *status.Store, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/status", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		status.WriteHTML(c.Writer, st.Snap())
	})
	r.GET("/status.json", func(c *gin.Context) {
		snap := st.Snap()
		if snap.Generated.IsZero() {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run yet"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})
	r.GET("/status/last-success", func(c *gin.Context) {
		snap, ok := st.LastSuccess()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no successful run yet"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	return r
}

type Server struct {
	srv *http.Server
}

func New(addr string, h http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}
