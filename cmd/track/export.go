package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noobzdxz-gif/Tracking-App/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries for a date range as CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default <range>.csv, \"-\" for stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	r, err := resolveRange()
	if err != nil {
		return err
	}

	service, closeService, err := openService()
	if err != nil {
		return err
	}
	defer closeService()

	buckets, err := service.BucketsForRange(cmd.Context(), r)
	if err != nil {
		return err
	}

	if exportOut == "-" {
		return export.WriteCSV(os.Stdout, buckets, r)
	}

	path := exportOut
	if path == "" {
		path = export.Filename(r)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := export.WriteCSV(f, buckets, r); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
