package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Simplici0/meshquote/internal/mesh"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info [file]",
		Short: "Display the geometry of a binary STL file",
		Long:  "Show triangle count, bounding box, dimensions, enclosed volume and surface area.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			m, err := mesh.Parse(data)
			if err != nil {
				return err
			}

			if opts.json {
				return writeJSON(cmd.OutOrStdout(), m.Summary())
			}
			printInfo(cmd.OutOrStdout(), args[0], m)
			return nil
		},
	}
}

func printInfo(w io.Writer, filename string, m *mesh.Mesh) {
	s := m.Summary()

	fmt.Fprintln(w, "STL File Information")
	fmt.Fprintln(w, "====================")
	if m.Header != "" {
		fmt.Fprintf(w, "Header: %s\n", m.Header)
	}
	fmt.Fprintf(w, "File: %s\n\n", filename)

	fmt.Fprintln(w, "Model Statistics:")
	fmt.Fprintf(w, "  Triangles: %d\n", s.TriangleCount)
	fmt.Fprintf(w, "  Surface Area: %.3f mm²\n", s.SurfaceArea)
	fmt.Fprintf(w, "  Volume: %.3f mm³\n\n", s.Volume)

	fmt.Fprintln(w, "Bounding Box:")
	fmt.Fprintf(w, "  Min: (%.3f, %.3f, %.3f)\n", s.BoundingBox.Min.X, s.BoundingBox.Min.Y, s.BoundingBox.Min.Z)
	fmt.Fprintf(w, "  Max: (%.3f, %.3f, %.3f)\n\n", s.BoundingBox.Max.X, s.BoundingBox.Max.Y, s.BoundingBox.Max.Z)

	fmt.Fprintln(w, "Dimensions:")
	fmt.Fprintf(w, "  Width (X): %.3f mm\n", s.Dimensions.X)
	fmt.Fprintf(w, "  Depth (Y): %.3f mm\n", s.Dimensions.Y)
	fmt.Fprintf(w, "  Height (Z): %.3f mm\n", s.Dimensions.Z)
}
