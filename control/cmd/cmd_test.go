package cmd

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	benchCfg "kvbench/control/config"

	"go.uber.org/zap"
)

// okServer answers every line it receives with "Ok".
func okServer(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 512)
				for {
					if _, err := c.Read(buf); err != nil {
						return
					}
					if _, err := c.Write([]byte("Ok\n")); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestExecuteLineProtocol(t *testing.T) {
	host, port := okServer(t)
	cfg := benchCfg.GetDefaultConfig().ApplyArgs([]string{host, strconv.Itoa(port), "set", "4", "40"})
	cfg.Protocol = "line"

	result, err := execute(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	for _, wr := range result.Workers {
		if !wr.Connected || wr.Iterations != 10 || wr.Failures != 0 {
			t.Errorf("worker %d: %+v", wr.ID, wr)
		}
	}
	var out bytes.Buffer
	result.Report(&out)
	if !strings.HasPrefix(out.String(), "Stress test (line) completed in ") {
		t.Errorf("Report() = %q", out.String())
	}
}

func TestExecuteUnknownProtocol(t *testing.T) {
	cfg := benchCfg.GetDefaultConfig()
	cfg.Protocol = "smtp"
	if _, err := execute(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("expected error for unknown protocol")
	}
}

func TestSetField(t *testing.T) {
	tests := []struct {
		field string
		value string
		isErr bool
		check func(*benchCfg.BenchConfig) bool
	}{
		{"num_workers", "12", false, func(c *benchCfg.BenchConfig) bool { return c.NumWorkers == 12 }},
		{"seed", "0x10", false, func(c *benchCfg.BenchConfig) bool { return c.Seed == 16 }},
		{"host", "10.0.0.1", false, func(c *benchCfg.BenchConfig) bool { return c.Host == "10.0.0.1" }},
		{"verbose", "true", false, func(c *benchCfg.BenchConfig) bool { return c.Verbose }},
		{"dial_timeout", "250ms", false, func(c *benchCfg.BenchConfig) bool {
			return time.Duration(c.DialTimeout) == 250*time.Millisecond
		}},
		{"num_workers", "many", true, nil},
		{"dial_timeout", "soon", true, nil},
		{"no_such_field", "1", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			cfg := benchCfg.GetDefaultConfig()
			err := setField(cfg, tt.field, tt.value)
			if (err != nil) != tt.isErr {
				t.Fatalf("setField() error = %v, wantErr %v", err, tt.isErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("setField(%s=%s) not applied: %+v", tt.field, tt.value, cfg)
			}
		})
	}
}

func TestConfigCommands(t *testing.T) {
	GConfig = &GlobalConfig{ctlConfigPath: t.TempDir()}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	steps := [][]string{
		{"config", "init"},
		{"config", "set", "num_workers=3"},
		{"config", "get", "num_workers"},
	}
	for _, args := range steps {
		out.Reset()
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	if strings.TrimSpace(out.String()) != "3" {
		t.Errorf("config get num_workers = %q, want 3", out.String())
	}

	rootCmd.SetArgs([]string{"config", "set", "num_workers=0"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected validation error for num_workers=0")
	}

	stored, err := benchCfg.ReadConfig(GConfig.GetConfigFilePath())
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if stored.NumWorkers != 3 {
		t.Errorf("stored num_workers = %d, want 3", stored.NumWorkers)
	}
}

func TestRunAcceptsNegativePositionals(t *testing.T) {
	host, port := okServer(t)
	dir := t.TempDir()

	base := benchCfg.GetDefaultConfig()
	base.NumWorkers = 2
	base.NumOps = 10
	if err := base.WriteConfig(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}
	GConfig = &GlobalConfig{ctlConfigPath: dir}

	// -3 and -1 fall back to the stored 2 workers and 10 ops
	rootCmd.SetArgs([]string{"run", "line", host, strconv.Itoa(port), "set", "-3", "-1"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run with negative positionals: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "run.log")); err != nil {
		t.Errorf("run log not written to the config directory: %v", err)
	}
}

func TestRunLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := benchCfg.GetDefaultConfig()

	tests := []struct {
		name    string
		global  *GlobalConfig
		logFile string
		want    string
	}{
		{"explicit log file", &GlobalConfig{ctlConfigPath: dir}, "bench.log", "bench.log"},
		{"config directory", &GlobalConfig{ctlConfigPath: dir}, "", filepath.Join(dir, "run.log")},
		{"missing config directory", &GlobalConfig{ctlConfigPath: filepath.Join(dir, "absent")}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *cfg
			c.LogFile = tt.logFile
			if got := tt.global.RunLogFile(&c); got != tt.want {
				t.Errorf("RunLogFile() = %q, want %q", got, tt.want)
			}
		})
	}
}
