package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Compiler.LtorgInterval != 25 {
		t.Errorf("Expected LtorgInterval=25, got %d", cfg.Compiler.LtorgInterval)
	}
	if cfg.Compiler.MaxSyntaxError != 50 {
		t.Errorf("Expected MaxSyntaxError=50, got %d", cfg.Compiler.MaxSyntaxError)
	}

	if cfg.Interpreter.MaxLoopIterations != 1000000 {
		t.Errorf("Expected MaxLoopIterations=1000000, got %d", cfg.Interpreter.MaxLoopIterations)
	}
	if cfg.Interpreter.ParWorkerPoolSize != 8 {
		t.Errorf("Expected ParWorkerPoolSize=8, got %d", cfg.Interpreter.ParWorkerPoolSize)
	}

	if cfg.Runtime.NumberFormat != "dec" {
		t.Errorf("Expected NumberFormat=dec, got %s", cfg.Runtime.NumberFormat)
	}
	if !cfg.Runtime.ColorOutput {
		t.Error("Expected ColorOutput=true")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "miniparc" && path != "config.toml" {
			t.Errorf("Expected path in miniparc directory or fallback, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Compiler.LtorgInterval = 40
	cfg.Interpreter.MaxLoopIterations = 5000
	cfg.Runtime.ColorOutput = false
	cfg.Runtime.NumberFormat = "hex"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Compiler.LtorgInterval != 40 {
		t.Errorf("Expected LtorgInterval=40, got %d", loaded.Compiler.LtorgInterval)
	}
	if loaded.Interpreter.MaxLoopIterations != 5000 {
		t.Errorf("Expected MaxLoopIterations=5000, got %d", loaded.Interpreter.MaxLoopIterations)
	}
	if loaded.Runtime.ColorOutput {
		t.Error("Expected ColorOutput=false")
	}
	if loaded.Runtime.NumberFormat != "hex" {
		t.Errorf("Expected NumberFormat=hex, got %s", loaded.Runtime.NumberFormat)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}
	if cfg.Compiler.LtorgInterval != 25 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[compiler]
ltorg_interval = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
