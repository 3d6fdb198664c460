// Package handlers serves the funnel dashboard API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/seuros/funnelscope/internal/aggregate"
	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/geoip"
	"github.com/seuros/funnelscope/internal/httpx"
	"github.com/seuros/funnelscope/internal/logging"
	"github.com/seuros/funnelscope/internal/realtime"
	"github.com/seuros/funnelscope/internal/sessions"
)

// Deps are the collaborators of the API. Hub and Locator may be nil.
type Deps struct {
	Store          *sessions.Store
	Hub            *realtime.Hub
	Locator        *geoip.Locator
	DefaultMonth   string
	DefaultCountry dataset.Country
	TopN           int
	ProxyMode      string
	Version        string
	Source         string
}

type Handlers struct {
	deps     Deps
	validate *validator.Validate
}

func New(deps Deps) *Handlers {
	if deps.DefaultCountry == "" {
		deps.DefaultCountry = dataset.CountryGlobal
	}
	if deps.TopN <= 0 {
		deps.TopN = aggregate.DefaultTopN
	}
	return &Handlers{
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register mounts every route on app.
func (h *Handlers) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/up", h.Up)
	app.Get("/api/version", h.Version)

	api := app.Group("/api")
	api.Get("/months", h.Months)
	api.Get("/funnel", h.Funnel)
	api.Get("/trend", h.Trend)

	lookup := api.Group("/lookup")
	lookup.Get("/error-codes", h.ErrorCodes)
	lookup.Get("/failure-reasons", h.FailureReasons)
	lookup.Get("/login-urls", h.LoginURLs)

	s := api.Group("/sessions")
	s.Post("/", h.CreateSession)
	s.Get("/:id", h.GetSession)
	s.Delete("/:id", h.DeleteSession)
	s.Post("/:id/select", h.SelectKey)
	s.Post("/:id/stage/:stage", h.ClickStage)
	s.Post("/:id/entry/:entry", h.ClickEntry)
	s.Post("/:id/code/:code", h.ClickCode)
	s.Post("/:id/trend", h.ShowTrend)
	s.Post("/:id/back", h.Back)
	s.Post("/:id/reset", h.Reset)

	if h.deps.Hub != nil {
		app.Get("/ws/sessions/:id", h.UpgradeSession, h.deps.Hub.Handler("id"))
	}
}

func (h *Handlers) snapshot() *dataset.Snapshot {
	return h.deps.Store.Snapshot()
}

// defaultMonth prefers the configured month when the snapshot has it.
func (h *Handlers) defaultMonth() string {
	snapshot := h.snapshot()
	if h.deps.DefaultMonth != "" && snapshot.HasMonth(h.deps.DefaultMonth) {
		return h.deps.DefaultMonth
	}
	if latest := snapshot.LatestMonth(); latest != "" {
		return latest
	}
	return h.deps.DefaultMonth
}

// defaultCountry geolocates the client when GeoIP is enabled.
func (h *Handlers) defaultCountry(c fiber.Ctx) dataset.Country {
	if !h.deps.Locator.Enabled() {
		return h.deps.DefaultCountry
	}
	return h.deps.Locator.DefaultCountry(httpx.ClientIP(c, h.deps.ProxyMode), h.deps.DefaultCountry)
}

// resolveKey reads month and country from the query string, filling in
// defaults for absent values.
func (h *Handlers) resolveKey(c fiber.Ctx) (dataset.Key, error) {
	key := dataset.Key{
		Month:   httpx.QueryString(c, "month", h.defaultMonth()),
		Country: h.defaultCountry(c),
	}
	if raw := httpx.QueryString(c, "country", ""); raw != "" {
		country, err := dataset.ParseCountry(raw)
		if err != nil {
			return dataset.Key{}, err
		}
		key.Country = country
	}
	return key, nil
}

// bindBody decodes an optional JSON body and validates it.
func (h *Handlers) bindBody(c fiber.Ctx, dst any) error {
	if body := c.Body(); len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return errors.New("invalid JSON body")
		}
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "datetime":
			messages = append(messages, fmt.Sprintf("%s must look like YYYY-MM, got %q", field, fe.Value()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}

// publish pushes a session frame to its websocket subscribers.
func (h *Handlers) publish(res sessions.Result) {
	if h.deps.Hub == nil {
		return
	}
	payload, err := json.Marshal(FrameMessage{Type: "frame", Session: res.ID, Frame: res.Frame})
	if err != nil {
		logging.L().Warn("failed to encode frame message", "session_id", res.ID, "error", err)
		return
	}
	h.deps.Hub.Publish(res.ID, payload)
}
