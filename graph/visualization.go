package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter renders a graph's structure in formats suitable for
// documentation. It reads the node and edge tables only; it never executes
// anything.
type Exporter struct {
	graph *StateGraph
}

// NewExporter creates a graph exporter for the given graph.
func NewExporter(graph *StateGraph) *Exporter {
	return &Exporter{graph: graph}
}

// ExporterFor returns an exporter for a compiled graph.
func ExporterFor(r *Runnable) *Exporter {
	return NewExporter(r.graph)
}

// Nodes returns the declared nodes sorted by name.
func (e *Exporter) Nodes() []Node {
	nodes := make([]Node, 0, len(e.graph.nodes))
	for _, node := range e.graph.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

// Edges returns the fixed edges in declaration order.
func (e *Exporter) Edges() []Edge {
	edges := make([]Edge, len(e.graph.edges))
	copy(edges, e.graph.edges)
	return edges
}

// ConditionalEdges returns, per source node, the route-name to destination
// mapping. Sources routed without a path map get an empty mapping.
func (e *Exporter) ConditionalEdges() map[string]map[string]string {
	out := make(map[string]map[string]string, len(e.graph.conditionalEdges))
	for from, ce := range e.graph.conditionalEdges {
		paths := make(map[string]string, len(ce.PathMap))
		for key, to := range ce.PathMap {
			paths[key] = to
		}
		out[from] = paths
	}
	return out
}

// EntryPoint returns the configured entry node name.
func (e *Exporter) EntryPoint() string {
	return e.graph.entryPoint
}

// MermaidOptions defines configuration for Mermaid diagram generation.
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid flowchart of the graph. The output can be
// pasted into Markdown; GitHub renders it directly.
func (e *Exporter) DrawMermaid() string {
	return e.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
func (e *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	sb.WriteString("    START([\"START\"])\n")
	sb.WriteString("    style START fill:#90EE90\n")
	if e.graph.entryPoint != "" {
		sb.WriteString(fmt.Sprintf("    START --> %s\n", e.graph.entryPoint))
	}

	for _, node := range e.Nodes() {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", node.Name, node.Name))
	}

	if e.referencesEnd() {
		sb.WriteString("    END([\"END\"])\n")
		sb.WriteString("    style END fill:#FFB6C1\n")
	}

	for _, edge := range e.graph.edges {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", edge.From, edge.To))
	}

	for _, from := range e.conditionalSources() {
		ce := e.graph.conditionalEdges[from]
		if ce.PathMap == nil {
			sb.WriteString(fmt.Sprintf("    %s -.->|?| %s\n", from, from))
			continue
		}
		for _, key := range sortedKeys(ce.PathMap) {
			sb.WriteString(fmt.Sprintf("    %s -.->|%s| %s\n", from, key, ce.PathMap[key]))
		}
	}

	if e.graph.entryPoint != "" {
		sb.WriteString(fmt.Sprintf("    style %s fill:#87CEEB\n", e.graph.entryPoint))
	}

	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the graph.
func (e *Exporter) DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")

	sb.WriteString("    START [label=\"START\", shape=ellipse, style=filled, fillcolor=lightgreen];\n")
	if e.graph.entryPoint != "" {
		sb.WriteString(fmt.Sprintf("    START -> %s;\n", e.graph.entryPoint))
		sb.WriteString(fmt.Sprintf("    %s [style=filled, fillcolor=lightblue];\n", e.graph.entryPoint))
	}

	if e.referencesEnd() {
		sb.WriteString("    END [label=\"END\", shape=ellipse, style=filled, fillcolor=lightpink];\n")
	}

	for _, edge := range e.graph.edges {
		sb.WriteString(fmt.Sprintf("    %s -> %s;\n", edge.From, edge.To))
	}

	for _, from := range e.conditionalSources() {
		ce := e.graph.conditionalEdges[from]
		for _, key := range sortedKeys(ce.PathMap) {
			sb.WriteString(fmt.Sprintf("    %s -> %s [style=dashed, label=\"%s\"];\n", from, ce.PathMap[key], key))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// DrawASCII generates an ASCII tree representation of the graph.
func (e *Exporter) DrawASCII() string {
	if e.graph.entryPoint == "" {
		return "No entry point set\n"
	}

	var sb strings.Builder
	visited := make(map[string]bool)

	sb.WriteString("Graph Execution Flow:\n")
	sb.WriteString("├── START\n")
	e.drawASCIINode(e.graph.entryPoint, "│   ", true, visited, &sb)

	return sb.String()
}

func (e *Exporter) drawASCIINode(nodeName string, prefix string, isLast bool, visited map[string]bool, sb *strings.Builder) {
	connector := "├──"
	nextPrefix := prefix + "│   "
	if isLast {
		connector = "└──"
		nextPrefix = prefix + "    "
	}

	if visited[nodeName] {
		sb.WriteString(fmt.Sprintf("%s%s %s (cycle)\n", prefix, connector, nodeName))
		return
	}
	visited[nodeName] = true

	sb.WriteString(fmt.Sprintf("%s%s %s\n", prefix, connector, nodeName))
	if nodeName == END {
		return
	}

	var targets []string
	for _, edge := range e.graph.edges {
		if edge.From == nodeName {
			targets = append(targets, edge.To)
		}
	}
	if ce, ok := e.graph.conditionalEdges[nodeName]; ok {
		if ce.PathMap == nil {
			targets = append(targets, "(?)")
		} else {
			for _, key := range sortedKeys(ce.PathMap) {
				targets = append(targets, ce.PathMap[key])
			}
		}
	}
	sort.Strings(targets)

	for i, target := range targets {
		last := i == len(targets)-1
		if target == "(?)" {
			conn := "├──"
			if last {
				conn = "└──"
			}
			sb.WriteString(fmt.Sprintf("%s%s (?)\n", nextPrefix, conn))
			continue
		}
		e.drawASCIINode(target, nextPrefix, last, visited, sb)
	}
}

func (e *Exporter) referencesEnd() bool {
	for _, edge := range e.graph.edges {
		if edge.To == END {
			return true
		}
	}
	for _, ce := range e.graph.conditionalEdges {
		for _, to := range ce.PathMap {
			if to == END {
				return true
			}
		}
	}
	return false
}

func (e *Exporter) conditionalSources() []string {
	sources := make([]string, 0, len(e.graph.conditionalEdges))
	for from := range e.graph.conditionalEdges {
		sources = append(sources, from)
	}
	sort.Strings(sources)
	return sources
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
