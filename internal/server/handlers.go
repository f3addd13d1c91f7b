package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/theleftbit/waveview/pkg/analyzer"
)

const (
	// defaultSampleCount is the bucket count used when the request
	// does not ask for one.
	defaultSampleCount = 800

	// maxSampleCount caps the bucket count a single request may ask
	// for, bounding response size and decode work.
	maxSampleCount = 20000
)

// handleWaveform decodes one library file and responds with its
// amplitude buckets.
func (s *Server) handleWaveform(c *gin.Context) {
	name := c.Query("file")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file parameter"})

		return
	}

	// Reject absolute paths and traversal out of the media library.
	if !filepath.IsLocal(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file path"})

		return
	}

	count, err := parseSampleCount(c.Query("samples"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	stat, err := analyzer.ParseStat(c.Query("stat"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	a := &analyzer.Analyzer{Stat: stat, Normalize: true}

	samples, err := a.Samples(c.Request.Context(), filepath.Join(s.config.MediaDir, name), count)

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// Client went away mid-decode, nothing left to answer.
		return
	case errors.Is(err, fs.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})

		return
	case errors.Is(err, analyzer.ErrUnsupportedFormat):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

		return
	default:
		s.logger.Warn("Waveform analysis failed", "file", name, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not decode audio"})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file":    name,
		"stat":    stat.String(),
		"count":   len(samples),
		"samples": samples,
	})
}

// handleFormats lists the file extensions the waveform endpoint
// accepts.
func (s *Server) handleFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": analyzer.Formats()})
}

func parseSampleCount(raw string) (int, error) {
	if raw == "" {
		return defaultSampleCount, nil
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count <= 0 {
		return 0, errors.New("samples must be a positive integer")
	}

	if count > maxSampleCount {
		return 0, fmt.Errorf("samples must be at most %d", maxSampleCount)
	}

	return count, nil
}
