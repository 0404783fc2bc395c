package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exporterFixture(t *testing.T) *Exporter {
	t.Helper()

	g := NewStateGraph()
	g.AddNode("classify", "routes the input", func(ctx context.Context, state State) (State, error) {
		return nil, nil
	})
	g.AddNode("small", "", func(ctx context.Context, state State) (State, error) {
		return nil, nil
	})
	g.AddNode("large", "", func(ctx context.Context, state State) (State, error) {
		return nil, nil
	})
	g.AddEdge(START, "classify")
	g.AddConditionalEdges("classify", func(ctx context.Context, state State) string {
		return "little"
	}, map[string]string{
		"little": "small",
		"big":    "large",
	})
	g.AddEdge("small", END)
	g.AddEdge("large", END)

	runnable, err := g.Compile()
	require.NoError(t, err)
	return ExporterFor(runnable)
}

func TestExporterEnumeration(t *testing.T) {
	e := exporterFixture(t)

	nodes := e.Nodes()
	require.Len(t, nodes, 3)
	// Sorted by name.
	assert.Equal(t, "classify", nodes[0].Name)
	assert.Equal(t, "large", nodes[1].Name)
	assert.Equal(t, "small", nodes[2].Name)
	assert.Equal(t, "routes the input", nodes[0].Description)

	edges := e.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, Edge{From: "small", To: END}, edges[0])
	assert.Equal(t, Edge{From: "large", To: END}, edges[1])

	cond := e.ConditionalEdges()
	require.Contains(t, cond, "classify")
	assert.Equal(t, "small", cond["classify"]["little"])
	assert.Equal(t, "large", cond["classify"]["big"])

	assert.Equal(t, "classify", e.EntryPoint())
}

func TestDrawMermaid(t *testing.T) {
	e := exporterFixture(t)
	out := e.DrawMermaid()

	assert.True(t, strings.HasPrefix(out, "flowchart TD\n"))
	assert.Contains(t, out, "START --> classify")
	assert.Contains(t, out, `classify["classify"]`)
	assert.Contains(t, out, "small --> END")
	assert.Contains(t, out, "classify -.->|big| large")
	assert.Contains(t, out, "classify -.->|little| small")
	assert.Contains(t, out, `END(["END"])`)
}

func TestDrawMermaidDirection(t *testing.T) {
	e := exporterFixture(t)
	out := e.DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})
	assert.True(t, strings.HasPrefix(out, "flowchart LR\n"))
}

func TestDrawDOT(t *testing.T) {
	e := exporterFixture(t)
	out := e.DrawDOT()

	assert.True(t, strings.HasPrefix(out, "digraph G {"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "START -> classify;")
	assert.Contains(t, out, "small -> END;")
	assert.Contains(t, out, `classify -> large [style=dashed, label="big"];`)
}

func TestDrawASCII(t *testing.T) {
	e := exporterFixture(t)
	out := e.DrawASCII()

	assert.Contains(t, out, "START")
	assert.Contains(t, out, "classify")
	assert.Contains(t, out, "small")
	assert.Contains(t, out, "large")
	assert.Contains(t, out, "END")
}

func TestDrawASCIIMarksCycles(t *testing.T) {
	g := NewStateGraph()
	g.AddNode("a", "", func(ctx context.Context, state State) (State, error) { return nil, nil })
	g.AddNode("b", "", func(ctx context.Context, state State) (State, error) { return nil, nil })
	g.AddEdge(START, "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddConditionalEdges("b", func(ctx context.Context, state State) string { return END }, nil)

	runnable, err := g.Compile()
	require.NoError(t, err)

	out := ExporterFor(runnable).DrawASCII()
	assert.Contains(t, out, "(cycle)")
}

func TestDrawASCIIWithoutEntryPoint(t *testing.T) {
	e := NewExporter(NewStateGraph())
	assert.Equal(t, "No entry point set\n", e.DrawASCII())
}

func TestExporterDoesNotExecuteNodes(t *testing.T) {
	invoked := false
	g := NewStateGraph()
	g.AddNode("a", "", func(ctx context.Context, state State) (State, error) {
		invoked = true
		return nil, nil
	})
	g.AddEdge(START, "a")
	g.AddEdge("a", END)

	runnable, err := g.Compile()
	require.NoError(t, err)

	e := ExporterFor(runnable)
	_ = e.DrawMermaid()
	_ = e.DrawDOT()
	_ = e.DrawASCII()
	_ = e.Nodes()

	assert.False(t, invoked)
}
