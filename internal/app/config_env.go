package app

import (
    "os"
    "path/filepath"
    "strings"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, envKey string) {
        if *dst != "" { return }
        *dst = strings.TrimSpace(os.Getenv(envKey))
    }
    setString(&cfg.InputPath, "EPS_INPUT")
    setString(&cfg.MasterPath, "EPS_MASTER")
    setString(&cfg.OutputPath, "EPS_OUTPUT")
    setString(&cfg.ReportsDir, "EPS_REPORTS_DIR")
    setString(&cfg.AssetsDir, "EPS_ASSETS_DIR")
    setString(&cfg.OverridesPath, "EPS_OVERRIDES")
    setString(&cfg.CatalogPath, "EPS_CATALOG")

    // EPS_INPUTS is a path list separated like PATH
    if len(cfg.InputCandidates) == 0 {
        if v := strings.TrimSpace(os.Getenv("EPS_INPUTS")); v != "" {
            cfg.InputCandidates = filepath.SplitList(v)
        }
    }

    // Booleans
    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            if s == "1" || s == "true" || s == "yes" || s == "on" {
                *dst = true
            }
        }
    }
    setBool(&cfg.Verbose, "EPS_VERBOSE")
    setBool(&cfg.Gate, "EPS_GATE")
    setBool(&cfg.CoveragePDF, "EPS_COVERAGE_PDF")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags stay highest.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("EPS_INPUT"); v != "" { cfg.InputPath = v }
    if v := os.Getenv("EPS_INPUTS"); v != "" { cfg.InputCandidates = filepath.SplitList(v) }
    if v := os.Getenv("EPS_MASTER"); v != "" { cfg.MasterPath = v }
    if v := os.Getenv("EPS_OUTPUT"); v != "" { cfg.OutputPath = v }
    if v := os.Getenv("EPS_REPORTS_DIR"); v != "" { cfg.ReportsDir = v }
    if v := os.Getenv("EPS_ASSETS_DIR"); v != "" { cfg.AssetsDir = v }
    if v := os.Getenv("EPS_OVERRIDES"); v != "" { cfg.OverridesPath = v }
    if v := os.Getenv("EPS_CATALOG"); v != "" { cfg.CatalogPath = v }

    // Booleans override when env present and truthy/falsey
    setBool := func(dst *bool, envKey string) {
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            switch s {
            case "1", "true", "yes", "on":
                *dst = true
            case "0", "false", "no", "off":
                *dst = false
            }
        }
    }
    setBool(&cfg.Verbose, "EPS_VERBOSE")
    setBool(&cfg.Gate, "EPS_GATE")
    setBool(&cfg.CoveragePDF, "EPS_COVERAGE_PDF")
}
