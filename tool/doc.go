// Package tool provides ready-made tools implementing the langchaingo
// tools.Tool interface, usable with the prebuilt agent graphs.
package tool // import "github.com/flowgraph/flowgraph/tool"
