package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"kvbench/client/logger"
	"kvbench/client/runner"
	benchCfg "kvbench/control/config"
	"kvbench/protocol"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const runArgsUsage = "[host] [port] [mode] [workers] [ops]"

var RunCmd = &cobra.Command{
	Use:   "run <" + strings.Join(protocol.Names(), "|") + "> " + runArgsUsage,
	Short: "Run a stress test",
	Long: `Run a stress test against a key-value server. All arguments are positional and optional.
Numeric arguments that cannot be parsed fall back to the configured values.
mode is "set" (writes), "get" (reads) or anything else for an even mix.
Without a protocol subcommand the configured protocol is used.`,
	// negative numbers are positional values, not shorthand flags
	DisableFlagParsing: true,
	Args:               cobra.MaximumNArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		if wantsHelp(args) {
			return cmd.Help()
		}
		return runBenchmark("", args)
	},
}

func newProtocolRunCmd(name string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " " + runArgsUsage,
		Short:              fmt.Sprintf("Run a stress test over the %s protocol", name),
		DisableFlagParsing: true,
		Args:               cobra.MaximumNArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			if wantsHelp(args) {
				return cmd.Help()
			}
			return runBenchmark(name, args)
		},
	}
}

// wantsHelp reports a lone help flag; flag parsing is off on the run commands.
func wantsHelp(args []string) bool {
	return len(args) == 1 && (args[0] == "-h" || args[0] == "--help")
}

func init() {
	for _, name := range protocol.Names() {
		RunCmd.AddCommand(newProtocolRunCmd(name))
	}
}

func runBenchmark(protoName string, args []string) error {
	cfg := GConfig.BaseConfig().ApplyArgs(args)
	if protoName != "" {
		cfg.Protocol = protoName
	}

	runLogger, err := logger.NewLogger(GConfig.RunLogFile(cfg), cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer runLogger.Close()

	result, err := execute(context.Background(), cfg, runLogger.Logger)
	if err != nil {
		return err
	}
	result.Report(os.Stdout)
	return nil
}

// execute runs one benchmark described by cfg. Worker failures are logged, never
// returned.
func execute(ctx context.Context, cfg *benchCfg.BenchConfig, log *zap.Logger) (*runner.Result, error) {
	proto, err := protocol.Lookup(cfg.Protocol, cfg.ProtocolOptions(log))
	if err != nil {
		return nil, err
	}

	benchRunner, err := runner.NewBenchmarkRunner(cfg.ToWorkloadConfig(), proto, log)
	if err != nil {
		return nil, err
	}
	defer benchRunner.Close()

	return benchRunner.Run(ctx), nil
}
