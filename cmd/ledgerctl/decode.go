package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/ledgerctl/internal/config"
	"github.com/danmuck/ledgerctl/internal/extrinsic"
	"github.com/danmuck/ledgerctl/internal/hashing"
	"github.com/danmuck/ledgerctl/internal/hexutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type decodeOptions struct {
	configPath string
	runtime    string
	hash       string
	withHash   bool
	pretty     bool
}

func newDecodeCmd() *cobra.Command {
	opts := &decodeOptions{}
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode hex-encoded extrinsics into JSON records",
		Long: `Reads hex-encoded extrinsics from file, or stdin when no file is given.
Input is either one 0x-prefixed record per line or a JSON array of strings.
Output is a JSON array of {extrinsic, call} pairs in input order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "cli config file")
	cmd.Flags().StringVar(&opts.runtime, "runtime", "", "runtime metadata TOML (default: built-in calls)")
	cmd.Flags().StringVar(&opts.hash, "hash", "", "hash function for content ids")
	cmd.Flags().BoolVar(&opts.withHash, "with-hash", false, "attach a content id to each extrinsic")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	return cmd
}

func runDecode(cmd *cobra.Command, opts *decodeOptions, args []string) error {
	cfg, err := config.LoadDecodeConfig(opts.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("runtime") {
		cfg.Runtime = opts.runtime
	}
	if flags.Changed("hash") {
		cfg.Hash = opts.hash
	}
	if flags.Changed("with-hash") {
		cfg.WithHash = opts.withHash
	}

	rt, err := config.BuildRuntime(cfg.Runtime, cfg.MaxExtrinsicBytes, cfg.Versions)
	if err != nil {
		return err
	}
	hashFn, err := hashing.Lookup(cfg.Hash)
	if err != nil {
		return err
	}
	records, err := readRecords(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	decoded, err := extrinsic.DecodeExtrinsicsContext(cmd.Context(), rt, records, cfg.WithHash, hashFn)
	if err != nil {
		return err
	}
	log.Debug().Int("count", len(decoded)).Str("hash", cfg.Hash).Msg("decode complete")
	return writeJSON(cmd.OutOrStdout(), decoded, opts.pretty)
}

func newHashCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "hash [hex...]",
		Short: "Print the content id of each raw extrinsic",
		RunE: func(cmd *cobra.Command, args []string) error {
			hashFn, err := hashing.Lookup(name)
			if err != nil {
				return err
			}
			records := args
			if len(records) == 0 {
				records, err = readRecords(cmd.InOrStdin(), nil)
				if err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			for i, hex := range records {
				raw, err := hexutil.Decode(hex)
				if err != nil {
					return &extrinsic.RecordError{Index: i, Kind: extrinsic.KindEncoding, Err: err}
				}
				sum, err := hashFn(raw)
				if err != nil {
					return &extrinsic.RecordError{Index: i, Kind: extrinsic.KindHash, Err: err}
				}
				fmt.Fprintln(out, sum)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "hash", hashing.DefaultName, "hash function")
	return cmd
}

func readRecords(stdin io.Reader, args []string) ([]string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) > 0 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return parseRecords(data)
}

// parseRecords accepts a JSON array of strings or one record per line.
// Blank lines and lines starting with '#' are skipped.
func parseRecords(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []string
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("parse input array: %w", err)
		}
		return records, nil
	}

	records := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		records = append(records, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return records, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
