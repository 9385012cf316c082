// Package httpx carries the uniform response envelope shared by every
// endpoint: {success, data?, error?, meta?}.
package httpx

import "github.com/gofiber/fiber/v2"

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Pagination `json:"meta,omitempty"`
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Envelope{Success: true, Data: data})
}

func OKList(c *fiber.Ctx, data interface{}, meta Pagination) error {
	return c.JSON(Envelope{Success: true, Data: data, Meta: &meta})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data})
}

func Fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(Envelope{Success: false, Error: msg})
}

// PageCount computes total_pages, rounding up. Zero limit yields zero pages
// rather than a division panic.
func PageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}
