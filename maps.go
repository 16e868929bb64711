package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SLClient/internal/mapping"
	"SLClient/internal/mapstore"
	"SLClient/internal/ui"
)

func newMapsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "maps",
		Short: "List the saved maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			entries, err := catalog.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No saved maps in %s.\n", catalog.Dir())
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%-24s %10s  %s\n", e.Name, humanize.Bytes(uint64(e.Size)), humanize.Time(e.ModTime))
			}
			return nil
		},
	}
}

func newMapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Inspect a saved map without starting the client",
	}

	var (
		width  int
		height int
		layer  int
	)
	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a map centered on its saved position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, path, err := a.readMap(args[0])
			if err != nil {
				return err
			}
			metrics := a.metrics()
			g := mapping.New(mapping.WithWindow(width, height), mapping.WithMetrics(metrics))
			g.Restore(snapshot, path)
			if cmd.Flags().Changed("layer") {
				g.StepLayer(layer - g.Viewport().Layer)
				// Looking at another layer leaves the file as it is.
				g.MarkSaved(path)
			}
			frame := g.Frame()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, frame.Title())
			for _, row := range ui.RenderMap(frame, metrics) {
				fmt.Fprintln(out, row)
			}
			return nil
		},
	}
	show.Flags().IntVar(&width, "width", 30, "window width in cells")
	show.Flags().IntVar(&height, "height", 15, "window height in cells")
	show.Flags().IntVar(&layer, "layer", 0, "layer to show (default: the saved position's layer)")

	stats := &cobra.Command{
		Use:   "stats NAME",
		Short: "Summarise a saved map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, path, err := a.readMap(args[0])
			if err != nil {
				return err
			}
			writeStats(cmd.OutOrStdout(), path, snapshot)
			return nil
		},
	}

	cmd.AddCommand(show, stats)
	return cmd
}

// readMap resolves name through the catalog and decodes the file.
func (a *app) readMap(name string) (mapping.Snapshot, string, error) {
	catalog, err := a.catalog()
	if err != nil {
		return mapping.Snapshot{}, "", err
	}
	path, err := catalog.Path(name)
	if err != nil {
		return mapping.Snapshot{}, "", err
	}
	snapshot, err := mapstore.ReadSnapshot(path)
	if err != nil {
		return mapping.Snapshot{}, path, err
	}
	a.logger.Debug("map read", zap.String("path", path), zap.Int("nodes", len(snapshot.Nodes)))
	return snapshot, path, nil
}

func writeStats(out io.Writer, path string, s mapping.Snapshot) {
	fmt.Fprintf(out, "file:     %s\n", path)
	fmt.Fprintf(out, "position: %s\n", s.Position)
	fmt.Fprintf(out, "rooms:    %s\n", humanize.Comma(int64(len(s.Nodes))))
	fmt.Fprintf(out, "links:    %s\n", humanize.Comma(int64(len(s.Edges))))
	if len(s.Nodes) == 0 {
		return
	}

	lo, hi := s.Nodes[0], s.Nodes[0]
	perLayer := make(map[int]int)
	for _, c := range s.Nodes {
		lo.X, lo.Y, lo.Z = min(lo.X, c.X), min(lo.Y, c.Y), min(lo.Z, c.Z)
		hi.X, hi.Y, hi.Z = max(hi.X, c.X), max(hi.Y, c.Y), max(hi.Z, c.Z)
		perLayer[c.Z]++
	}
	fmt.Fprintf(out, "bounds:   x %d..%d, y %d..%d\n", lo.X, hi.X, lo.Y, hi.Y)

	layers := make([]int, 0, len(perLayer))
	for z := range perLayer {
		layers = append(layers, z)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(layers)))
	fmt.Fprintf(out, "layers:   %d\n", len(layers))
	for _, z := range layers {
		fmt.Fprintf(out, "  z=%-4d %s rooms\n", z, humanize.Comma(int64(perLayer[z])))
	}
}
