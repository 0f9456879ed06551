package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/citygml-stid/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the building ledger",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every ledger entry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")

		entries, err := loadEntries(cmd.Context(), cfg)
		if err != nil {
			return eris.Wrap(err, "ledger show")
		}
		return writeEntries(os.Stdout, entries, format)
	},
}

func init() {
	ledgerShowCmd.Flags().String("format", "json", "output format (json, yaml)")

	ledgerCmd.AddCommand(ledgerShowCmd)
	rootCmd.AddCommand(ledgerCmd)
}

// writeEntries renders entries to w. Map keys are emitted in sorted order by
// both encoders.
func writeEntries(w io.Writer, entries map[string]ledger.Entry, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return eris.Wrap(err, "ledger show: encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("ledger show: unsupported format %q", format)
	}
}
