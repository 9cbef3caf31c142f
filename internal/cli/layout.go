package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/layout"
	"github.com/nestview/nestview/pkg/scene"
)

// layoutCommand creates the layout command: compute geometry for a
// graph document and write the resulting scene.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		hierarchy string
		engine    string
		format    string
		output    string
		collapse  []string
	)

	cmd := &cobra.Command{
		Use:   "layout <payload.json>",
		Short: "Compute a layout and write the scene",
		Long: `Layout loads a graph document, optionally collapses containers,
runs a layout engine over the visible snapshot, and writes the scene.

Formats:
  json  scene payload with positions (default)
  dot   Graphviz DOT source of the visible snapshot
  svg   rendered SVG via Graphviz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if engine == "" {
				engine = cfg.Layout.Engine
			}

			g, _, err := c.loadGraph(cmd.Context(), args[0], hierarchy, false)
			if err != nil {
				return err
			}
			for _, id := range collapse {
				if err := g.CollapseContainer(id); err != nil {
					return err
				}
			}

			eng, err := pickEngine(engine)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			res, err := eng.Layout(cmd.Context(), g)
			if err != nil {
				return err
			}
			if err := layout.Apply(g, res); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Computed %s layout", eng.Name()))

			out := cmd.OutOrStdout()
			w := out
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(errors.ErrCodeStorage, err, "create %s", output)
				}
				defer f.Close()
				w = f
			}

			sc := scene.Build(g, args[0])
			switch strings.ToLower(format) {
			case "", "json":
				if err := sc.WriteJSON(w); err != nil {
					return err
				}
			case "dot":
				fmt.Fprint(w, layout.NewDot().ToDOT(g))
			case "svg":
				svg, err := layout.RenderSVG(cmd.Context(), layout.NewDot().ToDOT(g))
				if err != nil {
					return err
				}
				if _, err := w.Write(svg); err != nil {
					return errors.Wrap(errors.ErrCodeStorage, err, "write svg")
				}
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", format)
			}

			if output != "" {
				printFile(out, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hierarchy, "hierarchy", "", "hierarchy choice to materialize")
	cmd.Flags().StringVar(&engine, "engine", "", "layout engine: grid or dot (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, dot, or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringSliceVar(&collapse, "collapse", nil, "containers to collapse before layout")

	return cmd
}

func pickEngine(name string) (layout.Engine, error) {
	switch name {
	case "", "grid":
		return layout.NewGrid(), nil
	case "dot":
		return layout.NewDot(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown layout engine %q", name)
	}
}
