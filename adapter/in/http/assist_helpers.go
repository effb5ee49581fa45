package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// APIResponse is the standard success envelope.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func newAPIResponse(c *fiber.Ctx, data interface{}) APIResponse {
	requestID, _ := c.Locals("request_id").(string)
	return APIResponse{
		Success:   true,
		Data:      data,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// SuccessResponse sends a standardized 200 JSON response.
func SuccessResponse(c *fiber.Ctx, data interface{}) error {
	return c.JSON(newAPIResponse(c, data))
}
