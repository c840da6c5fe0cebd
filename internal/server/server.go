// Package server exposes the ingestion pipeline and geo-data services over
// HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/contourhq/contour/internal/guide"
	"github.com/contourhq/contour/internal/ingest"
	"github.com/contourhq/contour/internal/metrics"
	"github.com/contourhq/contour/internal/services"
	"github.com/contourhq/contour/internal/vision"
)

// MaxUploadBytes caps raster uploads. Large aerial scans are common, so
// the limit is generous.
const MaxUploadBytes = 256 << 20

// Server wires handlers to their dependencies. Vision and Guide may be
// nil; the affected endpoints then report the capability as absent.
type Server struct {
	pipeline *ingest.Pipeline
	store    *UploadStore
	vision   *vision.Inferencer
	guide    *guide.Guide
	geo      *services.Client
	log      zerolog.Logger
}

// New assembles a Server.
func New(pipeline *ingest.Pipeline, store *UploadStore, inf *vision.Inferencer, g *guide.Guide, geo *services.Client, log zerolog.Logger) *Server {
	return &Server{
		pipeline: pipeline,
		store:    store,
		vision:   inf,
		guide:    g,
		geo:      geo,
		log:      log,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), metrics.Middleware())
	r.MaxMultipartMemory = 32 << 20

	api := r.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/extract-bounds", s.handleExtractBounds)
		api.GET("/search", s.handleSearch)
		api.GET("/famous-places", s.handleFamousPlaces)
		api.GET("/weather", s.handleWeather)
		api.POST("/peaks", s.handlePeaks)
		api.GET("/satellite-tile", s.handleSatelliteTile)
		api.POST("/location-info", s.handleLocationInfo)
		api.POST("/narrate", s.handleNarrate)
		api.POST("/tour-waypoints", s.handleTourWaypoints)
		api.GET("/health", s.handleHealth)
	}
	r.GET("/metrics", metrics.Handler())

	return r
}

// requestLogger logs each request with method, path, status and latency.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("ip", c.ClientIP()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ai":     s.vision != nil,
	})
}
