package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/memogen/internal/export"
)

var (
	flagExportFormat  string
	flagExportVersion string
)

var exportCmd = &cobra.Command{
	Use:   "export <company>",
	Short: "Export a run as JSON or standalone HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "json", "export format: json or html")
	exportCmd.Flags().StringVar(&flagExportVersion, "run-version", "", "run version to export (default: latest)")
}

func runExport(_ *cobra.Command, args []string) error {
	st := memoStore()

	switch flagExportFormat {
	case "json":
		data, err := export.WriteJSON(st, args[0], flagExportVersion)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	case "html":
		path, err := export.WriteHTML(st, args[0], flagExportVersion)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or html)", flagExportFormat)
	}
}
