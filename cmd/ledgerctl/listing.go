package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/danmuck/ledgerctl/internal/config"
	"github.com/danmuck/ledgerctl/internal/hashing"
	"github.com/danmuck/ledgerctl/internal/protocol/tlv"
	"github.com/spf13/cobra"
)

func newCallsCmd() *cobra.Command {
	var runtimePath string
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "List the calls the runtime can normalize",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := config.BuildRuntime(runtimePath, 0, nil)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CALL\tINDEX\tARGS")
			for _, spec := range rt.Registry().List() {
				args := make([]string, 0, len(spec.Args))
				for _, arg := range spec.Args {
					desc := fmt.Sprintf("%d:%s:%s", arg.ID, arg.Name, tlv.TypeName(arg.Type))
					if arg.Optional {
						desc += "?"
					}
					args = append(args, desc)
				}
				fmt.Fprintf(tw, "%s\t%d/%d\t%s\n", spec.FullName(), spec.PalletIndex, spec.CallIndex, strings.Join(args, " "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&runtimePath, "runtime", "", "runtime metadata TOML (default: built-in calls)")
	return cmd
}

func newHashesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hashes",
		Short: "List available hash functions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, name := range hashing.Names() {
				if name == hashing.DefaultName {
					fmt.Fprintf(out, "%s (default)\n", name)
					continue
				}
				fmt.Fprintln(out, name)
			}
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or check config files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <server|cli> <path>",
		Short: "Write a config template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[1], args[0], force); err != nil {
				return err
			}
			cmd.Printf("wrote %s config to %s\n", args[0], args[1])
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate <server|cli> <path>",
		Short: "Load and validate a config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch strings.ToLower(args[0]) {
			case "server":
				_, err = config.LoadServerConfig(args[1])
			case "cli":
				_, err = config.LoadDecodeConfig(args[1])
			default:
				err = fmt.Errorf("unknown config kind: %s", args[0])
			}
			if err != nil {
				return err
			}
			cmd.Printf("%s ok\n", args[1])
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
