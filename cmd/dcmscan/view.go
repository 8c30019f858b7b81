package main

import (
	"fmt"
	"io"

	"github.com/b71729/dcmscan"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view FILE...",
	Short: "Print every data element of each file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd.OutOrStdout(), args)
	},
}

// runView prints each file in turn. Elements decoded before a failure are
// still printed; the failure is logged and viewing moves to the next file.
func runView(out io.Writer, paths []string) error {
	failed := 0
	for _, path := range paths {
		if len(paths) > 1 {
			fmt.Fprintf(out, "==> %s <==\n", path)
		}
		printer := dcmscan.NewPrinter(out, cfg)
		err := dcmscan.DecodeFile(path, printer, decodeOptions()...)
		if err != nil {
			failed++
			logger.Errorw("decode failed",
				"file", path,
				"elements", printer.Count(),
				"partial", dcmscan.IsRecoverable(err),
				"error", err,
			)
			continue
		}
		logger.Debugw("decoded", "file", path, "elements", printer.Count())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to decode", failed, len(paths))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
