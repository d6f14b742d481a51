package rest

import (
	"net/http"

	"github.com/KevinKickass/RoverLink/internal/input"
	"github.com/KevinKickass/RoverLink/internal/types"
	"github.com/gin-gonic/gin"
)

type stickRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

func abort(c *gin.Context, e *types.APIError, details any) {
	c.AbortWithStatusJSON(e.Status, e.Response(details))
}

func (s *Server) resolveControl(c *gin.Context) (input.Control, bool) {
	id := c.Param("id")
	ctl, ok := s.lm.Layout().Control(id)
	if !ok {
		abort(c, types.ErrControlNotFound, id)
		return 0, false
	}
	return ctl, true
}

// POST /api/v1/controls/:id/press
func (s *Server) pressControl(c *gin.Context) {
	ctl, ok := s.resolveControl(c)
	if !ok {
		return
	}

	s.lm.Session().Press(ctl)
	c.JSON(http.StatusAccepted, gin.H{
		"control": ctl.String(),
		"action":  "press",
	})
}

// POST /api/v1/controls/:id/release
func (s *Server) releaseControl(c *gin.Context) {
	ctl, ok := s.resolveControl(c)
	if !ok {
		return
	}

	s.lm.Session().Release(ctl)
	c.JSON(http.StatusAccepted, gin.H{
		"control": ctl.String(),
		"action":  "release",
	})
}

func (s *Server) hasStick(c *gin.Context) bool {
	if !s.lm.Layout().Stick {
		abort(c, types.ErrNoStick, nil)
		return false
	}
	return true
}

func (s *Server) bindStick(c *gin.Context) (float64, float64, bool) {
	if !s.hasStick(c) {
		return 0, 0, false
	}

	var req stickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, types.ErrBadStickBody, err.Error())
		return 0, 0, false
	}
	return *req.X, *req.Y, true
}

// POST /api/v1/stick/begin
func (s *Server) stickBegin(c *gin.Context) {
	x, y, ok := s.bindStick(c)
	if !ok {
		return
	}
	s.lm.Session().StickBegin(x, y)
	c.Status(http.StatusAccepted)
}

// POST /api/v1/stick/move
func (s *Server) stickMove(c *gin.Context) {
	x, y, ok := s.bindStick(c)
	if !ok {
		return
	}
	s.lm.Session().StickMove(x, y)
	c.Status(http.StatusAccepted)
}

// POST /api/v1/stick/end
func (s *Server) stickEnd(c *gin.Context) {
	if !s.hasStick(c) {
		return
	}
	s.lm.Session().StickEnd()
	c.Status(http.StatusAccepted)
}
