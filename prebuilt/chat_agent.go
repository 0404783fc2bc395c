package prebuilt

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/flowgraph/flowgraph/graph"
)

// ChatAgent wraps an agent graph for multi-turn conversation. It keeps the
// message history and pins all runs to one thread ID so an attached
// checkpoint store accumulates the session's snapshots.
type ChatAgent struct {
	// Runnable is the underlying compiled agent graph
	Runnable *graph.Runnable

	threadID string
	messages []llms.MessageContent
	system   string
}

// ChatAgentOption configures a ChatAgent.
type ChatAgentOption func(*ChatAgent)

// WithSystemMessage prepends a system message to every model call.
func WithSystemMessage(message string) ChatAgentOption {
	return func(c *ChatAgent) {
		c.system = message
	}
}

// WithThreadID pins the session to a fixed thread ID instead of a
// generated one.
func WithThreadID(threadID string) ChatAgentOption {
	return func(c *ChatAgent) {
		c.threadID = threadID
	}
}

// NewChatAgent creates a conversational agent over the given model and
// tools.
func NewChatAgent(model llms.Model, inputTools []tools.Tool, opts ...ChatAgentOption) (*ChatAgent, error) {
	runnable, err := CreateReactAgent(model, inputTools, 0)
	if err != nil {
		return nil, err
	}

	c := &ChatAgent{
		Runnable: runnable,
		threadID: uuid.New().String(),
		messages: make([]llms.MessageContent, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ThreadID returns the session's thread ID.
func (c *ChatAgent) ThreadID() string {
	return c.threadID
}

// Messages returns a copy of the conversation history.
func (c *ChatAgent) Messages() []llms.MessageContent {
	out := make([]llms.MessageContent, len(c.messages))
	copy(out, c.messages)
	return out
}

// Chat sends a message and returns the agent's reply, accumulating the
// conversation history across calls.
func (c *ChatAgent) Chat(ctx context.Context, message string) (string, error) {
	userMsg := llms.TextParts(llms.ChatMessageTypeHuman, message)

	input := c.messages
	if c.system != "" && len(c.messages) == 0 {
		input = append(input, llms.TextParts(llms.ChatMessageTypeSystem, c.system))
	}
	input = append(input, userMsg)

	resp, err := c.Runnable.InvokeWithConfig(ctx,
		graph.State{"messages": input},
		graph.WithThreadID(c.threadID),
	)
	if err != nil {
		return "", err
	}

	messages, ok := resp["messages"].([]llms.MessageContent)
	if !ok || len(messages) == 0 {
		return "", fmt.Errorf("no messages in response")
	}
	c.messages = messages

	lastMsg := messages[len(messages)-1]
	if len(lastMsg.Parts) == 0 {
		return "", nil
	}
	switch part := lastMsg.Parts[0].(type) {
	case llms.TextContent:
		return part.Text, nil
	default:
		return fmt.Sprintf("%v", part), nil
	}
}

// Reset clears the conversation history and starts a new thread.
func (c *ChatAgent) Reset() {
	c.messages = c.messages[:0]
	c.threadID = uuid.New().String()
}
