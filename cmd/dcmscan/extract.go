package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/b71729/dcmscan"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract TAG FILE",
	Short: "Print the raw value bytes of the first top-level element with TAG",
	Example: `  dcmscan extract "(0010,0010)" study/1.dcm
  dcmscan extract 00100010 study/1.dcm`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, err := dcmscan.ParseTag(args[0])
		if err != nil {
			return err
		}
		return runExtract(cmd.OutOrStdout(), tag, args[1])
	},
}

// errFound stops decoding once the wanted element has been seen
var errFound = errors.New("found")

func runExtract(out io.Writer, tag dcmscan.Tag, path string) error {
	var found *dcmscan.Element
	err := dcmscan.DecodeFile(path, dcmscan.SinkFunc(func(e *dcmscan.Element) error {
		if e.Tag != tag {
			return nil
		}
		found = e
		return errFound
	}), decodeOptions()...)
	if err != nil && !errors.Is(err, errFound) {
		return err
	}
	if found == nil {
		return fmt.Errorf("tag %s could not be found in file %s", tag, path)
	}
	logger.Debugw("extracted", "file", path, "tag", tag, "offset", found.Offset, "length", found.Length)
	if found.IsUndefinedLength() {
		return fmt.Errorf("tag %s in %s has undefined length: no value to extract", tag, path)
	}
	_, err = fmt.Fprintln(out, goBytes(found.Value))
	return err
}

// goBytes renders `b` as a Go byte slice literal
func goBytes(b []byte) string {
	var sb strings.Builder
	sb.WriteString("[]byte{")
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02X", v)
	}
	sb.WriteString("}")
	return sb.String()
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
