package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	config "crosspost/configs"
	"crosspost/internal/scheduler"
)

// ScheduleHandler exposes the scheduler to external cron environments. When
// a shared secret is configured the trigger requires it as a bearer token.
// Without one the trigger is open; that is a deployment decision.
type ScheduleHandler struct {
	cfg config.Config
	s   *scheduler.Scheduler
}

func NewScheduleHandler(cfg config.Config, s *scheduler.Scheduler) *ScheduleHandler {
	return &ScheduleHandler{cfg: cfg, s: s}
}

func (h *ScheduleHandler) Trigger(c *fiber.Ctx) error {
	if h.cfg.CronSecret != "" {
		if c.Get("Authorization") != "Bearer "+h.cfg.CronSecret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
	}

	result, err := h.s.RunScheduler(c.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
