package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/seuros/funnelscope/internal/httpx"
	"github.com/seuros/funnelscope/internal/navigator"
)

// Months lists the selectable months, newest first.
func (h *Handlers) Months(c fiber.Ctx) error {
	return c.JSON(MonthsResponse{
		Months:    h.snapshot().Months(),
		Default:   h.defaultMonth(),
		Countries: countryOptions(),
	})
}

// Funnel renders the overview of one month and country without a session.
func (h *Handlers) Funnel(c fiber.Ctx) error {
	key, err := h.resolveKey(c)
	if err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(navigator.Build(h.snapshot(), key, navigator.Root{}, h.deps.TopN))
}

// Trend renders the monthly series of one stage for a country.
func (h *Handlers) Trend(c fiber.Ctx) error {
	key, err := h.resolveKey(c)
	if err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, err.Error())
	}
	stage := httpx.QueryString(c, "stage", navigator.DefaultTrendStage)
	return c.JSON(navigator.Build(h.snapshot(), key, navigator.Trend{Stage: stage}, h.deps.TopN))
}
