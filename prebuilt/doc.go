// Package prebuilt provides ready-made graph constructions on top of the
// graph package: a tool-execution node, a ReAct-style agent loop and a
// conversational ChatAgent wrapper, all built on langchaingo's model and
// tool interfaces.
package prebuilt // import "github.com/flowgraph/flowgraph/prebuilt"
