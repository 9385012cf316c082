package audit

import (
	"strconv"

	"estate-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/audit-logs?entity_type=extension&property_id=ext-1&limit=100
func ListAuditLogsHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := 100
		if raw := c.Query("limit"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
			}
			limit = v
		}

		logs, err := rec.List(c.Query("entity_type"), c.Query("property_id"), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list audit logs")
		}
		return httpx.OK(c, logs)
	}
}
