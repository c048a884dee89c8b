package app

import (
    "os"
    "path/filepath"
    "testing"
)

// LoadEnvFiles reads KEY=VALUE pairs into the process environment.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
    t.Setenv("EPS_INPUT", "")
    t.Setenv("EPS_MASTER", "")
    t.Setenv("EPS_OUTPUT", "")

    dir := t.TempDir()
    envPath := filepath.Join(dir, ".env.test")
    content := "\n# sample dotenv file\nEPS_INPUT=audit.md\nexport EPS_MASTER='master.fr.md'\nEPS_OUTPUT=out.ts # generated\nnot a pair\n"
    if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }

    if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("EPS_INPUT"); got != "audit.md" {
        t.Fatalf("EPS_INPUT=%q, want audit.md", got)
    }
    if got := os.Getenv("EPS_MASTER"); got != "master.fr.md" {
        t.Fatalf("EPS_MASTER=%q, want master.fr.md", got)
    }
    if got := os.Getenv("EPS_OUTPUT"); got != "out.ts" {
        t.Fatalf("EPS_OUTPUT=%q, want out.ts", got)
    }
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
    t.Setenv("K", "")
    dir := t.TempDir()
    a := filepath.Join(dir, ".env.a")
    b := filepath.Join(dir, ".env.b")
    if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil { t.Fatalf("write a: %v", err) }
    if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil { t.Fatalf("write b: %v", err) }

    if err := LoadEnvFiles(a, b); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("K"); got != "second" {
        t.Fatalf("override order failed: got %q, want second", got)
    }
}

func TestApplyEnvToConfig_FromEnv(t *testing.T) {
    t.Setenv("EPS_INPUT", "")
    t.Setenv("EPS_MASTER", "m.md")
    t.Setenv("EPS_REPORTS_DIR", "out/reports")
    t.Setenv("EPS_GATE", "yes")
    t.Setenv("EPS_INPUTS", "a.md"+string(os.PathListSeparator)+"b.md")

    cfg := Config{OutputPath: "explicit.ts"}
    t.Setenv("EPS_OUTPUT", "env.ts")
    ApplyEnvToConfig(&cfg)
    if cfg.MasterPath != "m.md" || cfg.ReportsDir != "out/reports" {
        t.Fatalf("paths not read from env: %+v", cfg)
    }
    if cfg.OutputPath != "explicit.ts" {
        t.Fatalf("explicit value should win, got %q", cfg.OutputPath)
    }
    if !cfg.Gate {
        t.Fatalf("EPS_GATE=yes should enable the gate")
    }
    if len(cfg.InputCandidates) != 2 || cfg.InputCandidates[1] != "b.md" {
        t.Fatalf("EPS_INPUTS parsed to %v", cfg.InputCandidates)
    }
}

func TestApplyEnvOverrides_WinsOverFile(t *testing.T) {
    t.Setenv("EPS_OUTPUT", "env.ts")
    t.Setenv("EPS_VERBOSE", "off")
    cfg := Config{OutputPath: "file.ts", Verbose: true}
    ApplyEnvOverrides(&cfg)
    if cfg.OutputPath != "env.ts" || cfg.Verbose {
        t.Fatalf("env did not override: %+v", cfg)
    }
}
