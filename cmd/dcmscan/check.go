package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/b71729/dcmscan"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check PATTERN...",
	Short: "Decode many files concurrently and report which fail",
	Long: `Decode every file matched by the given directories or glob patterns
("**" matches any number of directories) and report the files that fail
to decode, followed by a summary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runCheck(cmd.Context(), cmd.OutOrStdout(), args)
		if err != nil {
			return err
		}
		if len(res.failed) > 0 {
			return fmt.Errorf("%d of %d files failed to decode", len(res.failed), res.total)
		}
		return nil
	},
}

type checkResult struct {
	total    int
	elements int
	failed   map[string]error
}

func runCheck(ctx context.Context, out io.Writer, patterns []string) (checkResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	files, err := dcmscan.ExpandPaths(patterns)
	if err != nil {
		return checkResult{}, err
	}
	res := checkResult{total: len(files), failed: make(map[string]error)}
	mtx := &sync.Mutex{}
	err = dcmscan.ConcurrentlyWalkFiles(ctx, files, cfg.OpenFileLimit, func(ctx context.Context, file string) error {
		n := 0
		err := dcmscan.DecodeFile(file, dcmscan.SinkFunc(func(*dcmscan.Element) error {
			n++
			return nil
		}), decodeOptions()...)
		mtx.Lock()
		defer mtx.Unlock()
		res.elements += n
		if err != nil {
			res.failed[file] = err
			logger.Debugw("decode failed", "file", file, "elements", n, "error", err)
			return nil
		}
		logger.Debugw("decoded", "file", file, "elements", n)
		return nil
	})
	if err != nil {
		return res, err
	}
	for _, file := range files {
		if ferr, ok := res.failed[file]; ok {
			fmt.Fprintf(out, "FAIL %s: %v\n", file, ferr)
		}
	}
	if len(res.failed) == 0 {
		fmt.Fprintf(out, "parsed %d files (%d elements) without errors\n", res.total, res.elements)
	} else {
		fmt.Fprintf(out, "parsed %d files without errors, and failed to parse %d files\n",
			res.total-len(res.failed), len(res.failed))
	}
	return res, nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
