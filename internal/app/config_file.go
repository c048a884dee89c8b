package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    Input  string   `yaml:"input" json:"input"`
    Inputs []string `yaml:"inputs" json:"inputs"`
    Master string   `yaml:"master" json:"master"`
    Output string   `yaml:"output" json:"output"`

    Reports struct {
        Dir string `yaml:"dir" json:"dir"`
        PDF bool   `yaml:"pdf" json:"pdf"`
    } `yaml:"reports" json:"reports"`

    Overrides string `yaml:"overrides" json:"overrides"`
    Catalog   string `yaml:"catalog" json:"catalog"`
    Assets    string `yaml:"assets" json:"assets"`

    Gate    bool `yaml:"gate" json:"gate"`
    Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// still empty or at their default. Flags are parsed first, so explicit flags
// win over the file.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if cfg.InputPath == "" && fc.Input != "" { cfg.InputPath = fc.Input }
    if len(fc.Inputs) > 0 && sameStrings(cfg.InputCandidates, DefaultInputCandidates()) { cfg.InputCandidates = append([]string{}, fc.Inputs...) }
    if (cfg.MasterPath == "" || cfg.MasterPath == DefaultMasterPath) && fc.Master != "" { cfg.MasterPath = fc.Master }
    if (cfg.OutputPath == "" || cfg.OutputPath == DefaultOutputPath) && fc.Output != "" { cfg.OutputPath = fc.Output }
    if (cfg.ReportsDir == "" || cfg.ReportsDir == DefaultReportsDir) && fc.Reports.Dir != "" { cfg.ReportsDir = fc.Reports.Dir }
    if (cfg.OverridesPath == "" || cfg.OverridesPath == DefaultOverridesPath) && fc.Overrides != "" { cfg.OverridesPath = fc.Overrides }
    if (cfg.CatalogPath == "" || cfg.CatalogPath == DefaultCatalogPath) && fc.Catalog != "" { cfg.CatalogPath = fc.Catalog }
    if (cfg.AssetsDir == "" || cfg.AssetsDir == DefaultAssetsDir) && fc.Assets != "" { cfg.AssetsDir = fc.Assets }

    if !cfg.CoveragePDF && fc.Reports.PDF { cfg.CoveragePDF = true }
    if !cfg.Gate && fc.Gate { cfg.Gate = true }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
    if trim(cfg.InputPath) == "" && len(nonBlank(cfg.InputCandidates)) == 0 {
        return errors.New("config: input path is required")
    }
    if trim(cfg.OutputPath) == "" {
        return errors.New("config: output path is required")
    }
    if trim(cfg.ReportsDir) == "" {
        return errors.New("config: reports dir is required")
    }
    return nil
}

func trim(s string) string { return strings.TrimSpace(s) }

func nonBlank(in []string) []string {
    var out []string
    for _, s := range in {
        if trim(s) != "" { out = append(out, s) }
    }
    return out
}

func sameStrings(a, b []string) bool {
    if len(a) != len(b) { return false }
    for i := range a {
        if a[i] != b[i] { return false }
    }
    return true
}
