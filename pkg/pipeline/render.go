package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/genealogy"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/render"
)

// =============================================================================
// Stage 3: Render
// =============================================================================

// Render encodes resp in the given format. DOT and SVG draw the response
// graph, so resp must have the graph shape; targets are highlighted.
func Render(ctx context.Context, resp graph.Response, format string, opts render.Options) ([]byte, error) {
	if format == "" {
		format = DefaultFormat
	}
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := graph.WriteResponse(resp, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatText:
		return []byte(Text(resp)), nil
	}

	if resp.Graph == nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s output needs the graph shape, got %s", format, resp.Shape)
	}
	g, err := graph.ToDAG(*resp.Graph)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rebuild response graph")
	}
	if opts.Highlight == nil {
		opts.Highlight = resp.Targets
	}
	if opts.Title == "" {
		opts.Title = Title(resp)
	}
	dot := render.ToDOT(g, opts)
	if format == FormatDOT {
		return []byte(dot), nil
	}
	return render.RenderSVG(ctx, dot)
}

// Title describes the query behind resp, e.g. "ancestors of A01, B02".
func Title(resp graph.Response) string {
	if len(resp.Targets) == 0 {
		return resp.Op
	}
	if resp.Op == string(genealogy.OpPaths) {
		return "paths from " + strings.Join(resp.Targets, " to ")
	}
	return resp.Op + " of " + strings.Join(resp.Targets, ", ")
}

// Text renders resp as plain lines: one code, edge or path per line.
// Absent responses render as a single "(no result)" line so they stay
// distinguishable from an empty answer, which renders as nothing.
func Text(resp graph.Response) string {
	var b strings.Builder
	if resp.Absent {
		b.WriteString("(no result)\n")
		return b.String()
	}
	if len(resp.Paths) > 0 {
		for _, p := range resp.Paths {
			b.WriteString(strings.Join(p, " > "))
			b.WriteByte('\n')
		}
		if resp.Truncated {
			b.WriteString("... (truncated)\n")
		}
		return b.String()
	}

	switch {
	case resp.Graph != nil:
		for _, n := range resp.Graph.Nodes {
			if n.Label != "" {
				fmt.Fprintf(&b, "%s\t%s\n", n.ID, n.Label)
			} else {
				fmt.Fprintf(&b, "%s\n", n.ID)
			}
		}
		for _, e := range resp.Graph.Edges {
			fmt.Fprintf(&b, "%s -> %s\n", e.From, e.To)
		}
	case resp.Edges != nil:
		for _, e := range resp.Edges {
			fmt.Fprintf(&b, "%s -> %s\n", e.From, e.To)
		}
	default:
		for _, c := range resp.Codes {
			b.WriteString(c)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
