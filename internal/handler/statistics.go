package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HandleStatistics reports license, check and deployment figures. The check
// window defaults to the last 30 days; end_date is inclusive.
func (h *Handler) HandleStatistics(c *fiber.Ctx) error {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now

	if s := c.Query("start_date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    400,
				"message": "invalid start_date",
				"errors": []fiber.Map{
					{"field": "start_date", "message": "expected YYYY-MM-DD"},
				},
			})
		}
		start = d
	}

	if s := c.Query("end_date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    400,
				"message": "invalid end_date",
				"errors": []fiber.Map{
					{"field": "end_date", "message": "expected YYYY-MM-DD"},
				},
			})
		}
		end = d.AddDate(0, 0, 1)
	}

	stats, err := h.Stats.Compute(c.UserContext(), start, end)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    500,
			"message": "failed to compute statistics",
		})
	}

	return c.JSON(fiber.Map{
		"code":    200,
		"message": "success",
		"data":    stats,
		"rates": fiber.Map{
			"check_success":      stats.CheckSuccessRate(),
			"deployment_success": stats.DeploymentSuccessRate(),
		},
	})
}
