package app

// Config holds runtime configuration for the application.
type Config struct {
	// InputPath is the audit report. Empty means the first existing
	// InputCandidates entry.
	InputPath       string
	InputCandidates []string
	MasterPath      string

	// Outputs
	OutputPath string
	ReportsDir string

	// Optional inputs
	OverridesPath string
	CatalogPath   string
	AssetsDir     string

	// Behavior
	CoveragePDF bool
	Gate        bool
	Verbose     bool
}

// Defaults used when neither flags, environment nor config file set a value.
const (
	DefaultMasterPath    = "docs/editorial/master.fr.md"
	DefaultOutputPath    = "src/lib/editorial.generated.ts"
	DefaultReportsDir    = "reports"
	DefaultOverridesPath = "docs/editorial/overrides.yaml"
	DefaultCatalogPath   = "src/data/pdfIndex.json"
	DefaultAssetsDir     = "public/exercises"
)

// DefaultInputCandidates lists the audit report locations tried in order.
func DefaultInputCandidates() []string {
	return []string{"docs/editorial/audit-editorial.report.md", "audit-editorial.report.md"}
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		InputCandidates: DefaultInputCandidates(),
		MasterPath:      DefaultMasterPath,
		OutputPath:      DefaultOutputPath,
		ReportsDir:      DefaultReportsDir,
		OverridesPath:   DefaultOverridesPath,
		CatalogPath:     DefaultCatalogPath,
		AssetsDir:       DefaultAssetsDir,
	}
}
