// Package chat proxies conversations to an OpenAI-compatible chat completion
// API with the CODEMENTORX system prompt in front.
package chat

import (
	"context"
	"errors"
	"fmt"
)

// Message is one turn of a conversation.  Role is "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a new user message plus the conversation so far.
type Request struct {
	Message string
	History []Message
}

// Completer produces the assistant's reply to a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

var (
	ErrNotConfigured = errors.New("chat: API key not configured")
	ErrNoChoices     = errors.New("chat: no choices in response")
	ErrTimeout       = errors.New("chat: upstream timeout")
	ErrNetwork       = errors.New("chat: upstream unreachable")
)

// UpstreamError carries a non-200 answer from the provider.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI service error: %s", e.Body)
}

// SystemPrompt is sent as the first message of every completion.
const SystemPrompt = `You are CODEMENTORX, an expert AI development assistant and coding mentor.

Your expertise includes:
🎯 PROJECT PLANNING: Architecture design, technology stack selection, project roadmaps
💻 FULL-STACK DEVELOPMENT: React, Node.js, Python, databases, APIs
🐛 DEBUGGING: Error analysis, troubleshooting, performance optimization
📋 CODE REVIEW: Best practices, clean code, security considerations
🚀 DEPLOYMENT: DevOps, cloud platforms, CI/CD pipelines

Guidelines:
- Provide practical, production-ready solutions
- Include code examples when helpful
- Explain the reasoning behind recommendations
- Focus on modern development practices
- Help with both learning and real-world implementation

Always be encouraging and supportive while maintaining technical accuracy.`

// BuildMessages returns the system prompt, the last limit history turns and
// the new user message, in that order.  limit <= 0 drops the history.
func BuildMessages(req Request, limit int) []Message {
	hist := req.History
	if limit <= 0 {
		hist = nil
	} else if len(hist) > limit {
		hist = hist[len(hist)-limit:]
	}
	out := make([]Message, 0, len(hist)+2)
	out = append(out, Message{Role: "system", Content: SystemPrompt})
	out = append(out, hist...)
	out = append(out, Message{Role: "user", Content: req.Message})
	return out
}

// Mode is a suggested way of using the assistant, listed by GET /modes.
type Mode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func Modes() []Mode {
	return []Mode{
		{ID: "planning", Name: "Project Planning", Description: "Architecture, roadmaps, and technology selection"},
		{ID: "coding", Name: "Code Development", Description: "Writing, optimizing, and structuring code"},
		{ID: "debugging", Name: "Debug Assistant", Description: "Error analysis and troubleshooting"},
		{ID: "review", Name: "Code Review", Description: "Best practices and code improvement"},
	}
}
