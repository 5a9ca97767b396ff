// Package handlers provides HTTP handler implementations for the public API.
//
// Two response shapes are in use. The chat endpoints keep the envelope the
// web page expects:
//
//	{"success": true, "reply": "..."}
//	{"success": false, "error": "请提供消息内容"}
//
// Everything else returns plain JSON on success and ErrorResponse on failure:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "customer not found"
//	}
//
// fail and chatFail log 5xx responses with the request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/opc-agent/internal/http/middleware"
)

// ErrorResponse is the standard error envelope of the non-chat endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"customer not found"`
}

// ChatResponse is the envelope of POST /api/chat.
type ChatResponse struct {
	Success bool   `json:"success"         example:"true"`
	Reply   string `json:"reply,omitempty" example:"你好！我是OPC超级个体孵化助手。"`
	Error   string `json:"error,omitempty" example:"请提供消息内容"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail, used by the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// chatFail aborts with the chat envelope. cause is logged, never returned to
// the client.
func chatFail(c *gin.Context, status int, msg string, cause error) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Err(cause).
			Int("status", status).
			Msg("chat failed")
	}
	c.AbortWithStatusJSON(status, ChatResponse{Success: false, Error: msg})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func png(c *gin.Context, data []byte) {
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "image/png", data)
}
