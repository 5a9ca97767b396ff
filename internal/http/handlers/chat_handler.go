// Chat HTTP handlers.
//
//   - POST /api/chat     one conversational turn
//   - GET  /api/welcome  the opening greeting
//   - GET  /api/health   liveness
//
// The chat session is taken from the body, then the X-Session-ID header or
// session_id query, and finally the shared "default" session.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/opc-agent/internal/http/middleware"
	"github.com/tbourn/opc-agent/internal/services"
)

// User-facing chat errors.
const (
	msgEmptyMessage   = "请提供消息内容"
	msgMessageTooLong = "消息内容过长，请精简后再发送"
	msgChatFailed     = "服务暂时不可用，请稍后再试"
)

// HeaderIdempotencyReplayed is set to "true" when a stored reply is served.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// ChatRequest is the JSON payload of POST /api/chat.
type ChatRequest struct {
	// Message is the user's utterance.
	Message string `json:"message" example:"我在杭州，会编程，想做副业"`
	// SessionID selects the conversation; optional.
	SessionID string `json:"session_id,omitempty" example:"5f1c2b9e-7a43-4f0e-9a1d-2c3b4d5e6f70"`
}

// WelcomeResponse carries the opening greeting.
type WelcomeResponse struct {
	Reply string `json:"reply"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string `json:"status"  example:"ok"`
	Service string `json:"service" example:"opc-agent"`
}

// PostChat godoc
// @ID          postChat
// @Summary     Send a chat message
// @Description Runs one agent turn for the session and returns the assistant reply.
// @Description A repeated Idempotency-Key within its TTL returns the stored reply.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Retry-safe request key"  example(msg-0001)
// @Param       X-Session-ID     header  string  false "Chat session"
// @Param       body             body    handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Header      200  {string}  Idempotency-Replayed  "true when a stored reply was served"
// @Failure     400  {object}  handlers.ChatResponse  "Missing or invalid message"
// @Failure     429  {object}  handlers.ErrorResponse "Rate limited"
// @Failure     500  {object}  handlers.ChatResponse  "Agent or storage failure"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		chatFail(c, http.StatusBadRequest, msgEmptyMessage, err)
		return
	}

	session := middleware.ResolveSession(c, req.SessionID)
	key, _ := middleware.GetIdempotencyKey(c)

	reply, replayed, err := h.chat.Send(c.Request.Context(), session, req.Message, key)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		chatFail(c, http.StatusBadRequest, msgEmptyMessage, err)
		return
	case errors.Is(err, services.ErrMessageTooLong):
		chatFail(c, http.StatusBadRequest, msgMessageTooLong, err)
		return
	case err != nil:
		chatFail(c, http.StatusInternalServerError, msgChatFailed, err)
		return
	}

	if replayed {
		c.Header(HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusOK, ChatResponse{Success: true, Reply: reply})
}

// Welcome godoc
// @ID          getWelcome
// @Summary     Opening greeting
// @Tags        Chat
// @Produce     json
// @Success     200  {object}  handlers.WelcomeResponse
// @Router      /welcome [get]
func (h *Handlers) Welcome(c *gin.Context) {
	ok(c, http.StatusOK, WelcomeResponse{Reply: h.opts.Welcome})
}

// Health godoc
// @ID          getHealth
// @Summary     Liveness probe
// @Tags        System
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{Status: "ok", Service: ServiceName})
}
