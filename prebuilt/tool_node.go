package prebuilt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/flowgraph/flowgraph/graph"
)

// ToolInvocation names a tool and the input to pass to it.
type ToolInvocation struct {
	Tool      string
	ToolInput string
}

// ToolExecutor dispatches invocations to a fixed set of tools by name.
type ToolExecutor struct {
	tools map[string]tools.Tool
}

// NewToolExecutor creates an executor over the given tools.
func NewToolExecutor(inputTools []tools.Tool) *ToolExecutor {
	m := make(map[string]tools.Tool, len(inputTools))
	for _, t := range inputTools {
		m[t.Name()] = t
	}
	return &ToolExecutor{tools: m}
}

// Execute runs the named tool with the given input.
func (e *ToolExecutor) Execute(ctx context.Context, invocation ToolInvocation) (string, error) {
	t, ok := e.tools[invocation.Tool]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", invocation.Tool)
	}
	return t.Call(ctx, invocation.ToolInput)
}

// NewToolNode returns a node function that executes every tool call in the
// last AI message and appends one tool message per call. Tool errors are
// reported back to the model as tool output rather than failing the run.
func NewToolNode(inputTools []tools.Tool) graph.NodeFunc {
	executor := NewToolExecutor(inputTools)

	return func(ctx context.Context, state graph.State) (graph.State, error) {
		messages, ok := state["messages"].([]llms.MessageContent)
		if !ok || len(messages) == 0 {
			return nil, fmt.Errorf("messages key not found or invalid type")
		}

		lastMsg := messages[len(messages)-1]
		if lastMsg.Role != llms.ChatMessageTypeAI {
			return nil, fmt.Errorf("last message is not an AI message")
		}

		var toolMessages []llms.MessageContent
		for _, part := range lastMsg.Parts {
			tc, ok := part.(llms.ToolCall)
			if !ok {
				continue
			}

			// Models usually wrap the input as {"input": "..."}; fall back
			// to the raw argument string otherwise.
			var args map[string]any
			_ = json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args)

			inputVal := tc.FunctionCall.Arguments
			if val, ok := args["input"].(string); ok {
				inputVal = val
			}

			res, err := executor.Execute(ctx, ToolInvocation{
				Tool:      tc.FunctionCall.Name,
				ToolInput: inputVal,
			})
			if err != nil {
				res = fmt.Sprintf("Error: %v", err)
			}

			toolMessages = append(toolMessages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    res,
					},
				},
			})
		}

		return graph.State{"messages": toolMessages}, nil
	}
}

// HasToolCalls reports whether the last message in the state carries any
// tool calls. It is the usual routing predicate after an agent node.
func HasToolCalls(state graph.State) bool {
	messages, ok := state["messages"].([]llms.MessageContent)
	if !ok || len(messages) == 0 {
		return false
	}
	lastMsg := messages[len(messages)-1]
	for _, part := range lastMsg.Parts {
		if _, ok := part.(llms.ToolCall); ok {
			return true
		}
	}
	return false
}
