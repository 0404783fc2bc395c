package prebuilt

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/flowgraph/flowgraph/graph"
)

// CreateReactAgent builds a two-node agent graph: an agent node that calls
// the model with tool definitions, and a tool node that executes the tool
// calls the model requests. The agent loops between the two until the model
// answers without requesting a tool.
func CreateReactAgent(model llms.Model, inputTools []tools.Tool, maxIterations int) (*graph.Runnable, error) {
	if maxIterations == 0 {
		maxIterations = 20
	}

	workflow := graph.NewStateGraph()

	schema := graph.NewMapSchema()
	schema.RegisterReducer("messages", graph.AppendReducer)
	workflow.SetSchema(schema)
	workflow.SetMaxSteps(2 * maxIterations)

	toolDefs := toolDefinitions(inputTools)

	workflow.AddNode("agent", "Model call with tool definitions", func(ctx context.Context, state graph.State) (graph.State, error) {
		messages, ok := state["messages"].([]llms.MessageContent)
		if !ok {
			return nil, fmt.Errorf("messages key not found or invalid type")
		}

		resp, err := model.GenerateContent(ctx, messages, llms.WithTools(toolDefs))
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("model returned no choices")
		}

		choice := resp.Choices[0]
		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}

		return graph.State{"messages": []llms.MessageContent{aiMsg}}, nil
	})

	workflow.AddNode("tools", "Tool execution", NewToolNode(inputTools))

	workflow.SetEntryPoint("agent")
	workflow.AddConditionalEdges("agent", func(ctx context.Context, state graph.State) string {
		if HasToolCalls(state) {
			return "tools"
		}
		return graph.END
	}, map[string]string{
		"tools":   "tools",
		graph.END: graph.END,
	})
	workflow.AddEdge("tools", "agent")

	return workflow.Compile()
}

// toolDefinitions converts tools.Tool values into the llms.Tool shape the
// model API expects. Every tool takes a single string input.
func toolDefinitions(inputTools []tools.Tool) []llms.Tool {
	var defs []llms.Tool
	for _, t := range inputTools {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "The input query for the tool",
						},
					},
					"required":             []string{"input"},
					"additionalProperties": false,
				},
			},
		})
	}
	return defs
}
