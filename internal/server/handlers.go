package server

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contourhq/contour/internal/coord"
	"github.com/contourhq/contour/internal/guide"
	"github.com/contourhq/contour/internal/ingest"
	"github.com/contourhq/contour/internal/metrics"
	"github.com/contourhq/contour/internal/services"
)

// handleUpload ingests a raster upload and returns its texture plus bounds
// when the file carried usable georeferencing.
func (s *Server) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing file field"})
		return
	}
	if fh.Size > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "cannot read upload"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil || int64(len(data)) > MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file too large"})
		return
	}

	asset := ingest.Asset{
		ID:   ingest.NewAssetID(),
		Ext:  filepath.Ext(fh.Filename),
		Data: data,
	}

	start := time.Now()
	res, err := s.pipeline.Ingest(c.Request.Context(), asset)
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := ingest.Classify(err)
		metrics.IngestsTotal.WithLabelValues("unknown", string(kind)).Inc()
		status := http.StatusUnprocessableEntity
		if kind == ingest.FailUnsupportedFormat {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": string(kind), "detail": err.Error()})
		return
	}
	metrics.IngestsTotal.WithLabelValues(res.Format.String(), "success").Inc()

	if res.BoundsErr != nil {
		s.log.Warn().
			Str("asset", asset.ID).
			Err(res.BoundsErr).
			Msg("georeferencing unavailable, continuing without bounds")
	}
	s.log.Info().
		Str("asset", asset.ID).
		Stringer("format", res.Format).
		Bool("georeferenced", res.Bounds != nil).
		Int("width", res.Texture.Width).
		Int("height", res.Texture.Height).
		Msg("raster ingested")

	// Keep the encoded texture around for later bounds inference.
	if err := s.store.Save(asset.ID, res.Texture.MIME, res.Texture.Data); err != nil {
		s.log.Error().Err(err).Str("asset", asset.ID).Msg("failed to persist texture")
	}

	body := gin.H{
		"success":     true,
		"file_id":     asset.ID,
		"texture_b64": base64.StdEncoding.EncodeToString(res.Texture.Data),
		"mime":        res.Texture.MIME,
		"width":       res.Texture.Width,
		"height":      res.Texture.Height,
		"has_bounds":  res.Bounds != nil,
	}
	if res.Bounds != nil {
		body["bounds"] = res.Bounds
	}
	c.JSON(http.StatusOK, body)
}

// handleExtractBounds runs vision inference over the stored texture of a
// previous upload to estimate its footprint.
func (s *Server) handleExtractBounds(c *gin.Context) {
	if s.vision == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "ai unavailable"})
		return
	}
	fileID := c.Query("file_id")
	if fileID == "" {
		fileID = c.PostForm("file_id")
	}
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing file_id"})
		return
	}

	// The store holds the normalized texture written at upload time, so the
	// model sees what the client renders, with no second decode.
	tex, mime, err := s.store.Load(fileID)
	if errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "file not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	bounds, err := s.vision.InferBounds(c.Request.Context(), tex, mime)
	if err != nil {
		metrics.InferencesTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	metrics.InferencesTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "bounds": bounds})
}

func (s *Server) handleSearch(c *gin.Context) {
	q := c.Query("q")
	if len(q) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "query too short"})
		return
	}
	results, err := s.geo.Search(c.Request.Context(), q)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("nominatim").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (s *Server) handleFamousPlaces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "places": services.FamousPlaces()})
}

func (s *Server) handleWeather(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid lat/lon"})
		return
	}
	w, err := s.geo.CurrentWeather(c.Request.Context(), lat, lon)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("open-meteo").Inc()
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error(), "weather": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "weather": w})
}

func (s *Server) handlePeaks(c *gin.Context) {
	var b coord.Bounds
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid bounds"})
		return
	}
	peaks, err := s.geo.Peaks(c.Request.Context(), b)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("overpass").Inc()
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error(), "peaks": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "peaks": peaks})
}

func (s *Server) handleSatelliteTile(c *gin.Context) {
	z, err1 := strconv.Atoi(c.Query("z"))
	x, err2 := strconv.Atoi(c.Query("x"))
	y, err3 := strconv.Atoi(c.Query("y"))
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid tile coordinates"})
		return
	}
	tile, err := s.geo.SatelliteTile(c.Request.Context(), z, x, y)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("esri").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", tile)
}

func (s *Server) handleLocationInfo(c *gin.Context) {
	var req struct {
		Name string  `json:"name" binding:"required"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
		return
	}
	fallback := guide.LocationInfo{
		Title:       req.Name,
		Description: "Explore this terrain in 3D.",
		Facts:       []string{},
		Highlights:  []string{},
	}
	if s.guide == nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "ai unavailable", "info": fallback})
		return
	}
	info, err := s.guide.LocationInfo(c.Request.Context(), req.Name, req.Lat, req.Lon)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error(), "info": fallback})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "info": info})
}

func (s *Server) handleNarrate(c *gin.Context) {
	if s.guide == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "ai unavailable"})
		return
	}
	var req struct {
		Position guide.Position `json:"position"`
		Features []string       `json:"features"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
		return
	}
	narration, err := s.guide.Narrate(c.Request.Context(), req.Position, req.Features)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "narration": narration})
}

func (s *Server) handleTourWaypoints(c *gin.Context) {
	var b coord.Bounds
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid bounds"})
		return
	}
	if s.guide == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "waypoints": guide.DefaultTour})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "waypoints": s.guide.TourWaypoints(c.Request.Context(), b)})
}
