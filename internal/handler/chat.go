package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/codementorx/internal/chat"
    "github.com/iliyamo/codementorx/internal/logging"
)

// ChatHandler serves the assistant endpoints.  Configuration errors are 500
// and provider failures 502, both with a "detail" field; timeouts, network
// errors and anything unexpected are 200 with an empty response and an
// error string.
type ChatHandler struct {
    Completer chat.Completer
    Log       *zap.Logger
}

func NewChatHandler(c chat.Completer, log *zap.Logger) *ChatHandler {
    return &ChatHandler{Completer: c, Log: logging.OrNop(log)}
}

// Message is a pointer so a missing field can be told apart from "".
type chatReq struct {
    Message *string        `json:"message"`
    History []chat.Message `json:"history"`
}

type chatResp struct {
    Response string  `json:"response"`
    Error    *string `json:"error"`
}

const (
    msgChatTimeout = "Request timeout. The AI is taking longer than expected. Please try again."
    msgChatNetwork = "Network connection error. Please check your internet connection and try again."
)

func chatFailure(msg string) chatResp { return chatResp{Response: "", Error: &msg} }

// Chat forwards a message and its history to the completion provider.
func (h *ChatHandler) Chat(c echo.Context) error {
    var req chatReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid request body"})
    }
    if req.Message == nil {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "message is required"})
    }
    // Only conversation turns are forwarded; the system prompt is ours.
    for _, m := range req.History {
        if m.Role != "user" && m.Role != "assistant" {
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "history role must be user or assistant"})
        }
    }

    reply, err := h.Completer.Complete(c.Request().Context(), chat.Request{Message: *req.Message, History: req.History})
    if err == nil {
        return c.JSON(http.StatusOK, chatResp{Response: reply})
    }

    var upstream *chat.UpstreamError
    switch {
    case errors.Is(err, chat.ErrNotConfigured):
        return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "API key not configured"})
    case errors.As(err, &upstream):
        h.Log.Warn("chat: provider error", zap.Int("status", upstream.Status))
        return c.JSON(http.StatusBadGateway, echo.Map{"detail": upstream.Error()})
    case errors.Is(err, chat.ErrNoChoices):
        return c.JSON(http.StatusBadGateway, echo.Map{"detail": "No response from AI service"})
    case errors.Is(err, chat.ErrTimeout):
        return c.JSON(http.StatusOK, chatFailure(msgChatTimeout))
    case errors.Is(err, chat.ErrNetwork), errors.Is(err, context.Canceled):
        return c.JSON(http.StatusOK, chatFailure(msgChatNetwork))
    default:
        h.Log.Error("chat: unexpected error", zap.Error(err))
        return c.JSON(http.StatusOK, chatFailure("An unexpected error occurred: "+err.Error()))
    }
}

// Modes lists the suggested assistant modes.
func (h *ChatHandler) Modes(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"modes": chat.Modes()})
}
