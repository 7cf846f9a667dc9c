package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/concierge-core/gateway/internal/core"
)

func SetupRouter(app *fiber.App, h *Handler, env core.Environment) {
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"env":    env.String(),
		})
	})

	v1 := app.Group("/v1")
	v1.Post("/chat", h.Chat)
	v1.Post("/classify", h.Classify)
	v1.Post("/agents/suggest", h.SuggestAgents)
	v1.Delete("/conversations/:id", h.ClearConversation)

	v1.Get("/router/stats", h.RouterStats)
	v1.Get("/cache/stats", h.CacheStats)
	v1.Delete("/cache", h.ClearCache)
	v1.Get("/selector/savings", h.Savings)

	quality := v1.Group("/quality")
	quality.Get("/alerts", h.QualityAlerts)
	quality.Get("/rollbacks", h.QualityRollbacks)
	quality.Get("/comparison", h.QualityComparison)
	quality.Post("/check", h.QualityCheck)

	admin := v1.Group("/admin")
	admin.Get("/splits", h.Splits)
	admin.Put("/splits", h.SetSplit)
}
