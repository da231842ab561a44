package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-eyectl/pkg/control"
	"github.com/teslashibe/go-eyectl/pkg/gaze"
	"github.com/teslashibe/go-eyectl/pkg/protocol"
)

// handleError maps errors to JSON bodies
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case control.IsNotFound(err):
		code = fiber.StatusNotFound
	}

	if code == fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// handleHealth returns server status
func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":  "ok",
		"version": Version,
	}
	if s.control != nil {
		resp["engines"] = s.control.Count()
	}
	if s.events != nil {
		resp["event_clients"] = s.events.ClientCount()
	}
	if s.trackers != nil {
		resp["trackers"] = s.trackers.TrackerCount()
	}
	return c.JSON(resp)
}

// handleCreateSession starts a session. The body may carry initial settings.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	settings := gaze.DefaultSettings()
	if len(c.Body()) > 0 {
		var patch gaze.SettingsPatch
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		settings = patch.Apply(settings)
	}

	sess, err := s.store.Create(settings)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

// handleListSessions returns all sessions
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	list := s.store.List()
	return c.JSON(fiber.Map{
		"sessions": list,
		"count":    len(list),
	})
}

// handleGetSession returns one session
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.store.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

// handleDeleteSession removes a session and stops its engine
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if s.control != nil {
		s.control.Remove(id)
	}
	if s.trackers != nil {
		s.trackers.Disconnect(id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSessionState returns the live engine snapshot
func (s *Server) handleSessionState(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.store.Get(id); err != nil {
		return err
	}
	state, ok := s.control.State(id)
	if !ok {
		return c.JSON(fiber.Map{"live": false})
	}
	return c.JSON(fiber.Map{"live": true, "state": state})
}

// handleReplaceSettings replaces all settings
func (s *Server) handleReplaceSettings(c *fiber.Ctx) error {
	var settings gaze.Settings
	if err := c.BodyParser(&settings); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sess, err := s.control.UpdateSettings(c.Params("id"), settings)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

// handlePatchSettings merges the fields present in the body
func (s *Server) handlePatchSettings(c *fiber.Ctx) error {
	var patch gaze.SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sess, err := s.control.PatchSettings(c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(sess)
}

// BlinkRequest is the body of an external blink signal
type BlinkRequest struct {
	TS int64 `json:"ts"` // Unix milliseconds, defaults to now
}

// handleBlink feeds an external blink signal
func (s *Server) handleBlink(c *fiber.Ctx) error {
	var req BlinkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if req.TS <= 0 {
		req.TS = time.Now().UnixMilli()
	}

	if err := s.control.Blink(c.Params("id"), protocol.Millis(req.TS)); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted", "ts": req.TS})
}

// handleViewport updates the host viewport
func (s *Server) handleViewport(c *fiber.Ctx) error {
	var req protocol.ViewportData
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Width < 0 || req.Height <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "viewport height must be positive")
	}

	if err := s.control.Viewport(c.Params("id"), req.Viewport()); err != nil {
		return err
	}
	return c.JSON(req)
}
