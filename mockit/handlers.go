package mockit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofiber/fiber"

	"github.com/zerbitx/mockit/encode"
	"github.com/zerbitx/mockit/middleware"
	"github.com/zerbitx/mockit/store"
)

type (
	createMockRequest struct {
		Service   string         `json:"service"`
		Overrides store.Document `json:"overrides"`
		TTL       int            `json:"ttl"`
	}

	createMappingRequest struct {
		Match *store.Match `json:"match"`
		TTL   int          `json:"ttl"`
	}
)

// POST /mocks
func (m *mockit) createMock(c *fiber.Ctx) {
	body := createMockRequest{}
	if err := json.Unmarshal([]byte(c.Body()), &body); err != nil {
		m.respond(c, http.StatusBadRequest, encode.Error("invalid body"))
		return
	}

	if body.Service == "" {
		m.respond(c, http.StatusBadRequest, encode.Error("service missing"))
		return
	}

	if body.Overrides == nil {
		m.respond(c, http.StatusBadRequest, encode.Error("overrides missing"))
		return
	}

	ctx := middleware.RequestContext(c)
	if err := m.store.Write(ctx, body.Service, body.Overrides, time.Duration(body.TTL)*time.Second); err != nil {
		m.logger.WithError(err).Error("failed to write override")
		m.respond(c, http.StatusInternalServerError, encode.Error("write failed"))
		return
	}

	m.respond(c, http.StatusOK, encode.OK())
}

// GET /mocks/:service
func (m *mockit) showMock(c *fiber.Ctx) {
	service := c.Params("service")

	overrides, ok, err := m.store.Read(middleware.RequestContext(c), service)
	if err != nil {
		m.logger.WithError(err).Error("failed to read override")
		m.respond(c, http.StatusInternalServerError, encode.Error("read failed"))
		return
	}

	if !ok {
		m.respond(c, http.StatusNotFound, encode.Error("Not Found"))
		return
	}

	m.respond(c, http.StatusOK, overrides)
}

// DELETE /mocks/:service
func (m *mockit) destroyMock(c *fiber.Ctx) {
	service := c.Params("service")
	ctx := middleware.RequestContext(c)

	if err := m.store.Delete(ctx, service); err != nil {
		m.logger.WithError(err).Error("failed to delete override")
		m.respond(c, http.StatusInternalServerError, encode.Error("delete failed"))
		return
	}

	// a bound session also gives up any mappings it owns
	if scope, ok := middleware.Scope(c); ok && scope.ID() != "" {
		if err := m.store.DeleteMapping(ctx, scope.ID()); err != nil {
			m.logger.WithError(err).Error("failed to delete mapping")
			m.respond(c, http.StatusInternalServerError, encode.Error("delete failed"))
			return
		}
	}

	m.respond(c, http.StatusOK, encode.OK())
}

// DELETE /mocks/teardown
func (m *mockit) teardown(c *fiber.Ctx) {
	if err := m.store.DeleteAll(middleware.RequestContext(c)); err != nil {
		m.logger.WithError(err).Error("failed to teardown session")
		m.respond(c, http.StatusInternalServerError, encode.Error("teardown failed"))
		return
	}

	m.respond(c, http.StatusOK, encode.OK())
}

// POST /map_request
func (m *mockit) createMapping(c *fiber.Ctx) {
	body := createMappingRequest{}
	if err := json.Unmarshal([]byte(c.Body()), &body); err != nil {
		m.respond(c, http.StatusBadRequest, encode.Error("invalid body"))
		return
	}

	if body.Match == nil {
		m.respond(c, http.StatusBadRequest, encode.Error("match missing"))
		return
	}

	scope, ok := middleware.Scope(c)
	if !ok || scope.ID() == "" {
		m.respond(c, http.StatusBadRequest, encode.Error("mock_id missing"))
		return
	}

	ctx := middleware.RequestContext(c)
	if err := m.store.WriteMapping(ctx, *body.Match, scope.ID(), time.Duration(body.TTL)*time.Second); err != nil {
		m.logger.WithError(err).Error("failed to write mapping")
		m.respond(c, http.StatusInternalServerError, encode.Error("write failed"))
		return
	}

	m.respond(c, http.StatusOK, encode.OK())
}

func (m *mockit) respond(c *fiber.Ctx, status int, body interface{}) {
	c.Status(status)
	c.Set("Content-Type", "application/json")

	if err := encode.JSONIndented(body, c.Fasthttp.Response.BodyWriter()); err != nil {
		m.logger.WithError(err).Error("Failed to encode response")
		c.SendStatus(http.StatusInternalServerError)
	}
}
