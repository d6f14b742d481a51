package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/KevinKickass/RoverLink/internal/display"
	"github.com/KevinKickass/RoverLink/internal/types"
	"github.com/gin-gonic/gin"
)

// GET /api/v1/session/status
func (s *Server) getSessionStatus(c *gin.Context) {
	status := s.lm.GetCurrentStatus()
	c.JSON(http.StatusOK, status)
}

// GET /api/v1/layout
func (s *Server) getLayout(c *gin.Context) {
	c.JSON(http.StatusOK, s.lm.Layout())
}

// GET /api/v1/frames/:kind
func (s *Server) getFrame(c *gin.Context) {
	kind := display.Kind(c.Param("kind"))
	target, ok := s.lm.Target(kind)
	if !ok {
		abort(c, types.ErrUnknownTarget, string(kind))
		return
	}

	frame, ok := target.Latest()
	if !ok {
		abort(c, types.ErrNoFrameYet, string(kind))
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("X-Frame-Seq", strconv.FormatUint(frame.Seq, 10))
	c.Data(http.StatusOK, frame.MIME, frame.Data)
}

// POST /api/v1/system/shutdown
func (s *Server) shutdown(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Shutdown initiated",
	})

	// Trigger shutdown in background; the request context ends with this handler
	go func() {
		s.lm.Shutdown(context.Background())
	}()
}
