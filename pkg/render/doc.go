// Package render draws query result graphs as node-link diagrams.
//
// [ToDOT] produces Graphviz DOT source; [RenderSVG] lays it out in process
// with [github.com/goccy/go-graphviz], so no Graphviz installation is
// needed:
//
//	dot := render.ToDOT(res.Graph(), render.Options{Highlight: res.Targets})
//	svg, err := render.RenderSVG(ctx, dot)
//
// The layout is top to bottom with general codes above specific ones.
// Query targets passed in [Options.Highlight] are filled with an accent
// color.
package render
