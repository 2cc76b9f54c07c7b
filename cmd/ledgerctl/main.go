package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/ledgerctl/internal/extrinsic"
	"github.com/danmuck/ledgerctl/internal/logging"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	logging.ConfigureRuntime()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Decode and hash ledger extrinsics",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newDecodeCmd(),
		newHashCmd(),
		newCallsCmd(),
		newHashesCmd(),
		newConfigCmd(),
	)
	return root
}

// exitCode maps the failing decode step to a process exit status.
func exitCode(err error) int {
	var rec *extrinsic.RecordError
	if !errors.As(err, &rec) {
		return 1
	}
	switch rec.Kind {
	case extrinsic.KindEncoding:
		return 2
	case extrinsic.KindDecode:
		return 3
	case extrinsic.KindNormalize:
		return 4
	case extrinsic.KindHash:
		return 5
	default:
		return 1
	}
}
