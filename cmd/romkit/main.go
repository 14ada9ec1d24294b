// Command romkit unpacks and repacks the game-data blobs of a 32-bit
// console RPG into editable PNG / JSON / TOML artifacts and back.
//
// Usage:
//
//	romkit unpack <blob> [stem]     blob → <stem>[.lz77].png|json+toml
//	romkit pack <stem> <blob>       artifacts → blob, reversing the chain
//	romkit info <blob>              report the blob's detected format
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/duskforge/romkit/internal/romlog"
)

var (
	english bool
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "romkit",
		Short: "Unpack and repack this RPG's archive blobs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				romlog.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVar(&english, "english", false, "use the English-release SJIS/ASCII-high-bit table")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log codec tracing and informational messages")

	root.AddCommand(unpackCmd(), packCmd(), infoCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "romkit: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	romlog.SetLevel(logrus.WarnLevel)
}

func unpackCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "unpack <blob> [stem]",
		Short: "Decode one archive blob into editable artifacts",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stem := args[0]
			if len(args) == 2 {
				stem = args[1]
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
				stem = outDir + "/" + baseName(stem)
			}
			return runUnpack(args[0], stem)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: alongside the input)")
	return cmd
}

func packCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <stem> <blob>",
		Short: "Re-encode a stem's artifacts back into an archive blob",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(args[0], args[1])
		},
	}
	return cmd
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <blob>",
		Short: "Report a blob's detected format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
}
