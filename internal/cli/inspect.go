package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nestview/nestview/pkg/httputil"
	"github.com/nestview/nestview/pkg/hypergraph"
	"github.com/nestview/nestview/pkg/ingest"
)

// inspectCommand creates the inspect command: load a graph document,
// print a summary, the container tree, and the validation report.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		hierarchy   string
		shortLabels bool
		collapseAll bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <payload.json>",
		Short: "Summarize and validate a graph document",
		Long: `Inspect loads a compiler-emitted graph payload, materializes the
selected hierarchy, and prints entity counts, the container tree, and
an invariant validation report. The payload argument may be a local
file or an http(s) URL.

With --collapse-all the whole hierarchy is folded first, which
exercises hyper-edge lifting on the document before validating.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := c.Logger
			prog := newProgress(logger)

			g, payload, err := c.loadGraph(cmd.Context(), args[0], hierarchy, shortLabels)
			if err != nil {
				return err
			}
			if collapseAll {
				if err := g.CollapseAll(); err != nil {
					return err
				}
			}
			prog.done(fmt.Sprintf("Loaded %s", args[0]))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render(args[0]))
			printStats(out, g.Stats())
			fmt.Fprintln(out)

			if len(payload.HierarchyChoices) > 0 {
				names := make([]string, len(payload.HierarchyChoices))
				for i, ch := range payload.HierarchyChoices {
					names[i] = ch.ID
				}
				printKeyValue(out, "hierarchies", fmt.Sprintf("%v", names))
				fmt.Fprintln(out)
			}

			printTree(out, g)
			fmt.Fprintln(out)
			printViolations(out, g.Validate())
			return nil
		},
	}

	cmd.Flags().StringVar(&hierarchy, "hierarchy", "", "hierarchy choice to materialize")
	cmd.Flags().BoolVar(&shortLabels, "short-labels", false, "prefer compact node labels")
	cmd.Flags().BoolVar(&collapseAll, "collapse-all", false, "fold the whole hierarchy before reporting")

	return cmd
}

// loadGraph reads a payload from a file or an http(s) URL and
// materializes it with the configured dimension parameters.
func (c *CLI) loadGraph(ctx context.Context, path, hierarchy string, shortLabels bool) (*hypergraph.Graph, *ingest.Payload, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	var payload *ingest.Payload
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		payload, err = ingest.ReadPayloadURL(ctx, httputil.NewFetcher(nil), path)
	} else {
		payload, err = ingest.ReadPayloadFile(path)
	}
	if err != nil {
		return nil, nil, err
	}

	g := hypergraph.New(cfg.graphConfig(), c.Logger)
	if err := ingest.Load(g, payload, ingest.Options{
		Hierarchy:      hierarchy,
		UseShortLabels: shortLabels,
		GraphID:        path,
		Logger:         c.Logger,
	}); err != nil {
		return nil, nil, err
	}
	return g, payload, nil
}
