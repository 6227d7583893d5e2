package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config       string `toml:"-"`
	Host         string `toml:"server.host" env:"HOST"`
	Port         int    `toml:"server.port" env:"PORT"`
	Debug        bool   `toml:"debug" env:"DEBUG"`
	LoggingLevel string `toml:"logging.level" env:"LOGGING_LEVEL"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pibox.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
debug = true

[server]
host = "0.0.0.0"
port = 9000

[logging]
level = "debug"
`)
	opts := testOptions{Config: path, Host: "127.0.0.1", Port: 8080}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if opts.Host != "0.0.0.0" || opts.Port != 9000 || !opts.Debug {
		t.Errorf("opts = %+v", opts)
	}
	if opts.LoggingLevel != "debug" {
		t.Errorf("logging level = %q", opts.LoggingLevel)
	}
}

func TestEnvOverridesTOML(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 9000\n")
	t.Setenv("PIBOX_PORT", "7000")

	opts := testOptions{Config: path}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if opts.Port != 7000 {
		t.Errorf("port = %d, want env override 7000", opts.Port)
	}
}

func TestCLIFlagWinsOverEverything(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 9000\n")
	t.Setenv("PIBOX_PORT", "7000")

	cmd := &cobra.Command{}
	cmd.Flags().Int("port", 8080, "")
	if err := cmd.Flags().Set("port", "6000"); err != nil {
		t.Fatal(err)
	}

	opts := testOptions{Config: path, Port: 6000}
	if err := LoadConfig(&opts, cmd); err != nil {
		t.Fatalf("load: %v", err)
	}
	if opts.Port != 6000 {
		t.Errorf("port = %d, want CLI value 6000", opts.Port)
	}
}

func TestMissingConfigFileIsFine(t *testing.T) {
	opts := testOptions{Config: "/nonexistent/pibox.toml", Port: 8080}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if opts.Port != 8080 {
		t.Errorf("port = %d, want default kept", opts.Port)
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"
ws = "debug"
`)
	cfg := LoadLoggingConfig(path)
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Modules["ws"] != "debug" {
		t.Errorf("modules = %v", cfg.Modules)
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("")
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Port", "port"},
		{"LoggingLevel", "logging-level"},
		{"DirectoryURL", "directory-u-r-l"},
	}
	for _, c := range cases {
		if got := fieldNameToFlag(c.in); got != c.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
