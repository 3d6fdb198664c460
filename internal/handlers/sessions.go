package handlers

import (
	"errors"

	"github.com/gofiber/contrib/v3/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/utils/v2"

	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/httpx"
	"github.com/seuros/funnelscope/internal/navigator"
	"github.com/seuros/funnelscope/internal/sessions"
)

// CreateSession opens a navigator session on the overview.
func (h *Handlers) CreateSession(c fiber.Ctx) error {
	var req CreateSessionRequest
	if err := h.bindBody(c, &req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, err.Error())
	}

	key := dataset.Key{Month: req.Month, Country: h.defaultCountry(c)}
	if key.Month == "" {
		key.Month = h.defaultMonth()
	}
	if req.Country != "" {
		key.Country = dataset.Country(req.Country)
	}

	return c.Status(fiber.StatusCreated).JSON(h.deps.Store.Create(key))
}

// GetSession renders the active view of a session.
func (h *Handlers) GetSession(c fiber.Ctx) error {
	res, err := h.deps.Store.Frame(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(res)
}

// DeleteSession discards a session.
func (h *Handlers) DeleteSession(c fiber.Ctx) error {
	if !h.deps.Store.Delete(c.Params("id")) {
		return sessionError(c, sessions.ErrNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SelectKey changes the month and country, keeping the active view.
func (h *Handlers) SelectKey(c fiber.Ctx) error {
	var req SelectRequest
	if err := h.bindBody(c, &req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, err.Error())
	}
	return h.apply(c, func(nav *navigator.Session) bool {
		before := nav.Key()
		nav.Select(req.Month, dataset.Country(req.Country))
		return nav.Key() != before
	})
}

func (h *Handlers) ClickStage(c fiber.Ctx) error {
	stage := param(c, "stage")
	return h.apply(c, func(nav *navigator.Session) bool { return nav.ClickStage(stage) })
}

func (h *Handlers) ClickEntry(c fiber.Ctx) error {
	entry := param(c, "entry")
	return h.apply(c, func(nav *navigator.Session) bool { return nav.ClickEntry(entry) })
}

func (h *Handlers) ClickCode(c fiber.Ctx) error {
	code := param(c, "code")
	return h.apply(c, func(nav *navigator.Session) bool { return nav.ClickCode(code) })
}

// ShowTrend opens the trend chart of the stage query parameter, signups by default.
func (h *Handlers) ShowTrend(c fiber.Ctx) error {
	stage := utils.CopyString(httpx.QueryString(c, "stage", ""))
	return h.apply(c, func(nav *navigator.Session) bool { return nav.ShowTrend(stage) })
}

func (h *Handlers) Back(c fiber.Ctx) error {
	return h.apply(c, func(nav *navigator.Session) bool {
		before := nav.View()
		return nav.Back() != before
	})
}

func (h *Handlers) Reset(c fiber.Ctx) error {
	return h.apply(c, func(nav *navigator.Session) bool {
		before, key := nav.View(), nav.Key()
		nav.Reset()
		return nav.View() != before || nav.Key() != key
	})
}

// apply runs a transition and publishes the resulting frame when the state
// changed. Inert clicks answer 200 with changed=false.
func (h *Handlers) apply(c fiber.Ctx, fn func(*navigator.Session) bool) error {
	res, err := h.deps.Store.Do(c.Params("id"), fn)
	if err != nil {
		return sessionError(c, err)
	}
	if res.Changed {
		h.publish(res)
	}
	return c.JSON(res)
}

// UpgradeSession guards the websocket route: only upgrade requests for live
// sessions reach the hub.
func (h *Handlers) UpgradeSession(c fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return httpx.Error(c, fiber.StatusUpgradeRequired, "websocket upgrade required")
	}
	if !h.deps.Store.Exists(c.Params("id")) {
		return sessionError(c, sessions.ErrNotFound)
	}
	return c.Next()
}

// param copies a route parameter out of the request buffer. Navigator views
// and memo keys outlive the request.
func param(c fiber.Ctx, name string) string {
	return utils.CopyString(c.Params(name))
}

func sessionError(c fiber.Ctx, err error) error {
	if errors.Is(err, sessions.ErrNotFound) {
		return httpx.Error(c, fiber.StatusNotFound, err.Error())
	}
	return httpx.Error(c, fiber.StatusInternalServerError, err.Error())
}
