package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	benchCfg "kvbench/control/config"

	"github.com/spf13/cobra"
)

var errConfigNotFound = errors.New("config not found, please run 'kvbench config init' first")

var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kvbench configuration",
	Long:  "View and modify the base values used by 'kvbench run'",
}

var configSetCmd = &cobra.Command{
	Use:   "set field=value",
	Short: "Set a configuration field",
	Long:  "Set the value of a specific configuration field (e.g., config set num_workers=100)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if GConfig.ctlConfig == nil {
			return errConfigNotFound
		}
		field, value, ok := strings.Cut(args[0], "=")
		if !ok {
			return fmt.Errorf("invalid format. Use: field=value")
		}

		updated := *GConfig.ctlConfig
		if err := setField(&updated, field, value); err != nil {
			return err
		}
		if err := benchCfg.ValidateConfig(&updated); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		GConfig.ctlConfig = &updated
		return GConfig.ctlConfig.WriteConfig(GConfig.GetConfigFilePath())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get field",
	Short: "Get a configuration field value",
	Long:  "Get the current value of a specific configuration field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if GConfig.ctlConfig == nil {
			return errConfigNotFound
		}
		fieldVal, err := lookupField(GConfig.ctlConfig, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%v\n", fieldVal.Interface())
		return nil
	},
}

var configLoadFileCmd = &cobra.Command{
	Use:   "load-file path/to/config.{json,yaml}",
	Short: "Load configuration from file",
	Long:  "Load and replace current configuration with contents from the specified JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		newConfig, err := benchCfg.ReadConfig(args[0])
		if err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}

		GConfig.ctlConfig = newConfig

		if err := initConfigDir(); err != nil {
			return err
		}
		return GConfig.ctlConfig.WriteConfig(GConfig.GetConfigFilePath())
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View current configuration",
	Long:  "View the current configuration in JSON format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if GConfig.ctlConfig == nil {
			return errConfigNotFound
		}
		data, err := json.MarshalIndent(GConfig.ctlConfig, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration fields",
	Long:  "List all available configuration fields with their types and current values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GConfig.BaseConfig()
		configVal := reflect.ValueOf(cfg).Elem()
		configType := configVal.Type()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%-15s %-20s %-10s %s\n", "FIELD", "TYPE", "REQUIRED", "CURRENT VALUE")
		fmt.Fprintln(out, strings.Repeat("-", 80))

		for i := 0; i < configVal.NumField(); i++ {
			fieldType := configType.Field(i)
			required := strings.Contains(fieldType.Tag.Get("validate"), "required")
			fmt.Fprintf(out, "%-15s %-20s %-10v %v\n",
				jsonName(fieldType),
				fieldType.Type.String(),
				required,
				configVal.Field(i).Interface())
		}
		return nil
	},
}

// jsonName is the key a field is stored under in the config file
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

func lookupField(cfg *benchCfg.BenchConfig, field string) (reflect.Value, error) {
	configVal := reflect.ValueOf(cfg).Elem()
	configType := configVal.Type()
	for i := 0; i < configType.NumField(); i++ {
		if jsonName(configType.Field(i)) == field {
			return configVal.Field(i), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("field %s not found", field)
}

func setField(cfg *benchCfg.BenchConfig, field, value string) error {
	fieldVal, err := lookupField(cfg, field)
	if err != nil {
		return err
	}

	// Duration has kind int64, so check the type first
	if fieldVal.Type() == reflect.TypeOf(benchCfg.Duration(0)) {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", field, err)
		}
		fieldVal.Set(reflect.ValueOf(benchCfg.Duration(duration)))
		return nil
	}

	switch fieldVal.Kind() {
	case reflect.Int, reflect.Int64:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", field, err)
		}
		fieldVal.SetInt(v)
	case reflect.Bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", field, err)
		}
		fieldVal.SetBool(v)
	case reflect.String:
		fieldVal.SetString(value)
	default:
		return fmt.Errorf("unsupported type for field %s", field)
	}
	return nil
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration",
	Long:  "Initialize the configuration with default values and save it in JSON format in the config directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfigDir(); err != nil {
			return err
		}
		return initConfigFile(cmd)
	},
}

func init() {
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configSetCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configLoadFileCmd)
	ConfigCmd.AddCommand(configViewCmd)
	ConfigCmd.AddCommand(configListCmd)
}

func initConfigDir() error {
	if err := os.MkdirAll(GConfig.ctlConfigPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

func initConfigFile(cmd *cobra.Command) error {
	configFilePath := GConfig.GetConfigFilePath()
	defaultConfig := benchCfg.GetDefaultConfig()

	GConfig.ctlConfig = defaultConfig
	if err := defaultConfig.WriteConfig(configFilePath); err != nil {
		return fmt.Errorf("failed to write default config file: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Default configuration initialized and saved in", configFilePath)
	return nil
}
