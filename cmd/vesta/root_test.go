package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins", "flag.yaml", "env.yaml", "flag.yaml"},
		{"env", "", "env.yaml", "env.yaml"},
		{"default", "", "", defaultConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envConfig, tt.env)

			cfgPath = tt.flag
			t.Cleanup(func() { cfgPath = "" })

			if got := configPath(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func setEnvFile(t *testing.T, path string, changed bool) {
	t.Helper()

	flag := rootCmd.PersistentFlags().Lookup("env-file")

	envFile = path
	flag.Changed = changed

	t.Cleanup(func() {
		envFile = flag.DefValue
		flag.Changed = false
	})
}

func TestLoadEnv_MissingDefaultTolerated(t *testing.T) {
	setEnvFile(t, filepath.Join(t.TempDir(), ".env"), false)

	if err := loadEnv(); err != nil {
		t.Errorf("expected missing default file to be ignored, got %v", err)
	}
}

func TestLoadEnv_MissingExplicitFile(t *testing.T) {
	setEnvFile(t, filepath.Join(t.TempDir(), "custom.env"), true)

	if err := loadEnv(); err == nil {
		t.Error("expected error for missing --env-file")
	}
}

func TestLoadEnv_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("VESTA_TEST_ENV_FILE=loaded\n"), 0o600); err != nil {
		t.Fatalf("cannot write env file: %v", err)
	}

	// Register restoration, then unset so godotenv does not treat it as already set.
	t.Setenv("VESTA_TEST_ENV_FILE", "")
	os.Unsetenv("VESTA_TEST_ENV_FILE")

	setEnvFile(t, path, true)

	if err := loadEnv(); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}

	if got := os.Getenv("VESTA_TEST_ENV_FILE"); got != "loaded" {
		t.Errorf("expected variable from env file, got %q", got)
	}
}

func TestRoutesCommand(t *testing.T) {
	const content = `
name: shop
version: "1"
server:
  port: 8080
application:
  context_path: /shop
routes:
  - path: /status
    method: GET
    controller: status
  - path: /status/{action}
    method: GET
    controller: status
`

	path := filepath.Join(t.TempDir(), "vesta.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("cannot write config: %v", err)
	}

	setEnvFile(t, filepath.Join(t.TempDir(), ".env"), false)
	t.Cleanup(func() { cfgPath = "" })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"routes", "--config", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("routes: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 routes, got:\n%s", out.String())
	}

	if !strings.HasPrefix(lines[0], "METHOD") {
		t.Errorf("expected header, got %q", lines[0])
	}
	for _, want := range []string{"/shop/status", "/shop/status/{action}"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}
	if !strings.Contains(lines[1], "index,ping") {
		t.Errorf("expected sorted actions, got %q", lines[1])
	}
}

func TestRoutesCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vesta.yaml")
	if err := os.WriteFile(path, []byte("name: shop\n"), 0o600); err != nil {
		t.Fatalf("cannot write config: %v", err)
	}

	setEnvFile(t, filepath.Join(t.TempDir(), ".env"), false)
	t.Cleanup(func() { cfgPath = "" })

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"routes", "--config", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err == nil {
		t.Error("expected validation error")
	}
}
