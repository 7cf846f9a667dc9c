package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	errx "github.com/concierge-core/gateway/internal/core/error"
	"github.com/concierge-core/gateway/internal/gateway"
	"github.com/concierge-core/gateway/internal/gateway/model"
	"github.com/concierge-core/gateway/internal/gateway/quality"
)

type Handler struct {
	gw      *gateway.Gateway
	monitor *quality.Monitor
	splits  model.SplitStore
}

func NewHandler(gw *gateway.Gateway, monitor *quality.Monitor, splits model.SplitStore) *Handler {
	return &Handler{gw: gw, monitor: monitor, splits: splits}
}

// httpError maps business errors onto status codes. AppError carries its own
// status; anything else is an opaque 500.
func httpError(c *fiber.Ctx, err error) error {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(fiber.Map{"error": appErr.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal gateway error"})
}

func (h *Handler) Chat(c *fiber.Ctx) error {
	var req model.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	resp, err := h.gw.Chat(c.Context(), &req)
	if err != nil {
		return httpError(c, err)
	}

	c.Set("X-Gateway-Cache-Hit", strconv.FormatBool(resp.Cached))
	c.Set("X-Gateway-Agent", resp.Routing.AgentType.String())
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *Handler) Classify(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	cls, err := h.gw.ClassifyIntent(c.Context(), req.Message)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(cls)
}

func (h *Handler) SuggestAgents(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
		TopK    int    `json:"top_k"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.TopK <= 0 {
		req.TopK = 3
	}

	suggestions, err := h.gw.SuggestAgents(c.Context(), req.Message, req.TopK)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"suggestions": suggestions})
}

func (h *Handler) RouterStats(c *fiber.Ctx) error {
	stats, err := h.gw.RouterStats(c.Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(stats)
}

func (h *Handler) CacheStats(c *fiber.Ctx) error {
	stats, err := h.gw.CacheStats(c.Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(stats)
}

func (h *Handler) ClearCache(c *fiber.Ctx) error {
	removed, err := h.gw.ClearCache(c.Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}

func (h *Handler) ClearConversation(c *fiber.Ctx) error {
	if err := h.gw.ClearConversation(c.Context(), c.Params("id")); err != nil {
		return httpError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) QualityAlerts(c *fiber.Ctx) error {
	var severity *model.AlertSeverity
	if s := c.Query("severity"); s != "" {
		sev, ok := model.ParseSeverity(s)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown severity: " + s})
		}
		severity = &sev
	}
	limit := c.QueryInt("limit", 50)

	return c.JSON(fiber.Map{"alerts": h.monitor.Alerts(severity, limit)})
}

func (h *Handler) QualityRollbacks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"rollbacks": h.monitor.Rollbacks()})
}

func (h *Handler) QualityComparison(c *fiber.Ctx) error {
	var intent *model.Intent
	if s := c.Query("intent"); s != "" {
		parsed := model.ParseIntent(s)
		if parsed == model.IntentUnknown {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown intent: " + s})
		}
		intent = &parsed
	}
	days := c.QueryInt("days", 0)

	report, err := h.monitor.Comparison(c.Context(), intent, days)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(report)
}

// QualityCheck triggers one audit cycle on demand, outside the ticker.
func (h *Handler) QualityCheck(c *fiber.Ctx) error {
	alerts, err := h.monitor.CheckQuality(c.Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"alerts": alerts})
}

func (h *Handler) Savings(c *fiber.Ctx) error {
	return c.JSON(h.gw.Savings())
}

func (h *Handler) Splits(c *fiber.Ctx) error {
	splits, err := h.splits.Splits(c.Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"splits": splits})
}

// SetSplit is the manual override behind re-enabling a rolled-back intent.
// The monitor only ever lowers splits; raising one goes through here.
func (h *Handler) SetSplit(c *fiber.Ctx) error {
	var req struct {
		Intent     string  `json:"intent"`
		Percentage float64 `json:"percentage"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	intent := model.ParseIntent(req.Intent)
	if intent == model.IntentUnknown {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown intent: " + req.Intent})
	}

	if err := h.splits.SetSplit(c.Context(), intent, req.Percentage); err != nil {
		return httpError(c, err)
	}
	return c.JSON(fiber.Map{"intent": intent, "percentage": req.Percentage})
}
