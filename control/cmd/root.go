package cmd

import (
	"os"
	"path"

	benchCfg "kvbench/control/config"
	constants "kvbench/control/constants"

	"github.com/spf13/cobra"
)

// GlobalConfig is the persisted configuration shared by every subcommand
type GlobalConfig struct {
	ctlConfigPath string
	ctlConfig     *benchCfg.BenchConfig
}

var GConfig = &GlobalConfig{}

func (g *GlobalConfig) GetConfigFilePath() string {
	return path.Join(g.ctlConfigPath, constants.DEFAULT_CONFIG_FILE)
}

// BaseConfig is the stored configuration, or the defaults when none was initialized.
func (g *GlobalConfig) BaseConfig() *benchCfg.BenchConfig {
	if g.ctlConfig == nil {
		return benchCfg.GetDefaultConfig()
	}
	return g.ctlConfig
}

// RunLogFile is where a run logs besides stdout: the configured log_file, else run.log
// in the config directory once that directory exists.
func (g *GlobalConfig) RunLogFile(cfg *benchCfg.BenchConfig) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	if g.ctlConfigPath == "" {
		return ""
	}
	if info, err := os.Stat(g.ctlConfigPath); err != nil || !info.IsDir() {
		return ""
	}
	return path.Join(g.ctlConfigPath, constants.DEFAULT_BENCH_RUN_LOG_FILE)
}

func (g *GlobalConfig) load() error {
	if g.ctlConfigPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		g.ctlConfigPath = path.Join(home, constants.DEFAULT_CONFIG_DIR)
	}
	cfg, err := benchCfg.ReadConfig(g.GetConfigFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	g.ctlConfig = cfg
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "kvbench",
	Short: "kvbench is a load generator for key-value servers",
	Long:  "A CLI tool that drives a key-value server with concurrent SET/GET traffic over the etcd client, RESP or the line protocol and reports how long the run took",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return GConfig.load()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	rootCmd.AddCommand(ConfigCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
