package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/insights/internal/logging"
	"github.com/soltixdb/insights/internal/middleware"
	"github.com/soltixdb/insights/internal/models"
	"github.com/soltixdb/insights/internal/services"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	service *services.AnalyticsService
}

// New creates a new handler instance
func New(logger *logging.Logger, service *services.AnalyticsService) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// parseBody decodes the JSON body into out, writing a 400 on failure.
// The returned bool is false when a response has already been written.
func (h *Handler) parseBody(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_JSON",
				Message: "Failed to parse JSON body",
				Path:    c.Path(),
				Details: map[string]interface{}{"error": err.Error()},
			},
		})
	}
	return true, nil
}

// respondError renders a service or engine error
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	se := services.FromAnalyticsError(err)
	return c.Status(middleware.StatusForCode(se.Code)).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    se.Code,
			Message: se.Message,
			Path:    c.Path(),
			Details: se.Details,
		},
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    services.CodeInvalidRequest,
			Message: message,
			Path:    c.Path(),
		},
	})
}
