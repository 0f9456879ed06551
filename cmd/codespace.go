package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/citygml-stid/internal/codespace"
)

var codespaceCmd = &cobra.Command{
	Use:   "codespace <path>",
	Short: "Print the code to description map of a code-list document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCodespace(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(codespaceCmd)
}

func runCodespace(ctx context.Context, path string, out io.Writer) error {
	codes, err := codespace.FileResolver{}.Resolve(ctx, path)
	if err != nil {
		return eris.Wrap(err, "codespace")
	}
	formatCodeMap(out, codes)
	return nil
}

// formatCodeMap writes codes to out as a two-column table sorted by code.
func formatCodeMap(out io.Writer, codes codespace.CodeMap) {
	keys := make([]string, 0, len(codes))
	for k := range codes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tDESCRIPTION")
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", k, codes[k])
	}
	_ = w.Flush()
}
