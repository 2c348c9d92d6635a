package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kvbench/client/runner"
	"kvbench/control/constants"
	"kvbench/protocol"

	validator "github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// BenchConfig holds the base values of a run. Positional arguments of `kvbench run`
// override them per invocation.
type BenchConfig struct {
	Host        string   `json:"host" yaml:"host" validate:"required,valid_host"`
	Port        int      `json:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Mode        string   `json:"mode" yaml:"mode" validate:"required"`
	NumWorkers  int      `json:"num_workers" yaml:"num_workers" validate:"required,gt=0"`
	NumOps      int      `json:"num_ops" yaml:"num_ops" validate:"gte=0"`
	Protocol    string   `json:"protocol" yaml:"protocol" validate:"required,valid_protocol"`
	Seed        int64    `json:"seed" yaml:"seed"`
	DialTimeout Duration `json:"dial_timeout" yaml:"dial_timeout" validate:"required"`
	// Optional outputs
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" validate:"omitempty,filepath"`
	LogFile     string `json:"log_file,omitempty" yaml:"log_file,omitempty" validate:"omitempty,filepath"`
	Verbose     bool   `json:"verbose" yaml:"verbose"`
}

// Custom validation tags
const (
	protocolTag = "valid_protocol"
	hostTag     = "valid_host"
)

// RegisterCustomValidators registers all custom validators for BenchConfig
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation(protocolTag, validateProtocol); err != nil {
		return fmt.Errorf("failed to register protocol validator: %w", err)
	}

	if err := v.RegisterValidation(hostTag, validateHost); err != nil {
		return fmt.Errorf("failed to register host validator: %w", err)
	}

	return nil
}

func validateProtocol(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	for _, known := range protocol.Names() {
		if name == known {
			return true
		}
	}
	return false
}

// validateHost accepts an IP address or a DNS host name, without a port
func validateHost(fl validator.FieldLevel) bool {
	return IsValidHost(fl.Field().String())
}

func IsValidHost(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}
	if host == "" || len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, c := range label {
			isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
			if !isAlnum && c != '-' {
				return false
			}
		}
	}
	return true
}

func GetDefaultConfig() *BenchConfig {
	return &BenchConfig{
		Host:        constants.DEFAULT_HOST,
		Port:        constants.DEFAULT_PORT,
		Mode:        constants.DEFAULT_MODE,
		NumWorkers:  constants.DEFAULT_NUM_WORKERS,
		NumOps:      constants.DEFAULT_NUM_OPS,
		Protocol:    constants.PROTOCOL_RESP,
		Seed:        constants.DEFAULT_SEED,
		DialTimeout: Duration(constants.DEFAULT_DIAL_TIMEOUT_SECONDS * time.Second),
	}
}

func ValidateConfig(config *BenchConfig) error {
	v := validator.New()
	if err := RegisterCustomValidators(v); err != nil {
		return fmt.Errorf("failed to register custom validators: %w", err)
	}

	return v.Struct(config)
}

// ReadConfig loads a config file on top of the defaults. Files ending in .yaml or
// .yml are parsed as YAML, everything else as JSON with comments.
func ReadConfig(path string) (*BenchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	benchConfig := GetDefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, benchConfig); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		// comments and trailing commas are allowed in JSON config files
		if err := json.Unmarshal(jsonc.ToJSON(data), benchConfig); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	}
	err = ValidateConfig(benchConfig)
	if err != nil {
		return nil, err
	}
	return benchConfig, nil
}

func (cfg *BenchConfig) WriteConfig(path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyArgs returns a copy of cfg overridden by the positional arguments
// [host] [port] [mode] [workers] [ops]. Numeric arguments that do not parse or are out
// of range keep the value from cfg.
func (cfg *BenchConfig) ApplyArgs(args []string) *BenchConfig {
	out := *cfg
	if len(args) > 0 && args[0] != "" {
		out.Host = args[0]
	}
	if len(args) > 1 {
		if port, err := strconv.Atoi(args[1]); err == nil && port > 0 && port <= 65535 {
			out.Port = port
		}
	}
	if len(args) > 2 {
		out.Mode = args[2]
	}
	if len(args) > 3 {
		if workers, err := strconv.Atoi(args[3]); err == nil && workers > 0 {
			out.NumWorkers = workers
		}
	}
	if len(args) > 4 {
		if ops, err := strconv.Atoi(args[4]); err == nil && ops >= 0 {
			out.NumOps = ops
		}
	}
	return &out
}

func (cfg *BenchConfig) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

func (cfg *BenchConfig) ToWorkloadConfig() runner.WorkloadConfig {
	return runner.WorkloadConfig{
		Addr:        cfg.Addr(),
		Mode:        runner.ParseMode(cfg.Mode),
		NumWorkers:  cfg.NumWorkers,
		TotalOps:    cfg.NumOps,
		Seed:        cfg.Seed,
		MetricsFile: cfg.MetricsFile,
	}
}

func (cfg *BenchConfig) ProtocolOptions(logger *zap.Logger) protocol.Options {
	return protocol.Options{
		DialTimeout: time.Duration(cfg.DialTimeout),
		Logger:      logger,
	}
}
