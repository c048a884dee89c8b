package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/epseditorial/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("epseditorial failed")
		stop()
		os.Exit(1)
	}
}

// options are the flag values shared by every subcommand.
type options struct {
	configPath string
	envFiles   []string
	cfg        app.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{cfg: app.Config{}}
	root := &cobra.Command{
		Use:           "epseditorial",
		Short:         "Extract the EPS exercise guide into validated editorial records",
		Version:       app.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a YAML or JSON config file")
	pf.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files loaded before reading EPS_* variables")
	pf.BoolVarP(&opts.cfg.Verbose, "verbose", "v", false, "Verbose (debug) logging")
	pf.StringVar(&opts.cfg.InputPath, "input", "", "Audit report (default: first existing of "+strings.Join(app.DefaultInputCandidates(), ", ")+")")
	pf.StringVar(&opts.cfg.MasterPath, "master", "", "Markdown master file (default "+app.DefaultMasterPath+")")
	pf.StringVar(&opts.cfg.OutputPath, "output", "", "Generated module path (default "+app.DefaultOutputPath+")")
	pf.StringVar(&opts.cfg.ReportsDir, "reports", "", "Reports directory (default "+app.DefaultReportsDir+")")
	pf.StringVar(&opts.cfg.OverridesPath, "overrides", "", "Per-code field overrides YAML (default "+app.DefaultOverridesPath+")")
	pf.StringVar(&opts.cfg.CatalogPath, "catalog", "", "Catalog index JSON (default "+app.DefaultCatalogPath+")")
	pf.StringVar(&opts.cfg.AssetsDir, "assets", "", "Exercise image directory (default "+app.DefaultAssetsDir+")")

	root.AddCommand(
		&cobra.Command{
			Use:   "gen",
			Short: "Generate the editorial module, fallback report and manifest",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.app()
				if err != nil {
					return err
				}
				return a.Generate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "parse",
			Short: "Segment and classify the audit report into an inspection JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.app()
				if err != nil {
					return err
				}
				_, err = a.Parse(cmd.Context())
				return err
			},
		},
		newCheckCmd(opts),
		newCoverageCmd(opts),
	)
	return root
}

func newCheckCmd(opts *options) *cobra.Command {
	var gate bool
	cmd := &cobra.Command{
		Use:   "check [validator...]",
		Short: "Run the editorial validators over the assembled records",
		Long:  "Validators: placeholder, crossref, typography, leak, markdown, mojibake, level. All run when none is named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}
			_, err = a.Check(cmd.Context(), args, gate)
			return err
		},
	}
	cmd.Flags().BoolVar(&gate, "gate", false, "Fail when any issue is reported")
	return cmd
}

func newCoverageCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Check that every source paragraph reaches the records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}
			_, err = a.Coverage(cmd.Context())
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.cfg.CoveragePDF, "pdf", false, "Also write a PDF rendition of the report")
	return cmd
}

// app resolves the configuration with flags > env > config file > defaults
// and builds the App.
func (o *options) app() (*app.App, error) {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return nil, err
	}
	cfg := o.cfg
	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return nil, err
		}
		app.ApplyFileConfig(&cfg, fc)
		// Env beats the file but not explicit flags.
		app.ApplyEnvOverrides(&cfg)
		restoreFlags(&cfg, o.cfg)
	} else {
		app.ApplyEnvToConfig(&cfg)
	}
	fillDefaults(&cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Debug().Str("master", cfg.MasterPath).Str("output", cfg.OutputPath).Str("reports", cfg.ReportsDir).Msg("configuration")
	return app.New(cfg)
}

// restoreFlags puts back the values given explicitly on the command line.
func restoreFlags(cfg *app.Config, explicit app.Config) {
	keep := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	keep(&cfg.InputPath, explicit.InputPath)
	keep(&cfg.MasterPath, explicit.MasterPath)
	keep(&cfg.OutputPath, explicit.OutputPath)
	keep(&cfg.ReportsDir, explicit.ReportsDir)
	keep(&cfg.OverridesPath, explicit.OverridesPath)
	keep(&cfg.CatalogPath, explicit.CatalogPath)
	keep(&cfg.AssetsDir, explicit.AssetsDir)
	cfg.CoveragePDF = cfg.CoveragePDF || explicit.CoveragePDF
	cfg.Verbose = cfg.Verbose || explicit.Verbose
}

func fillDefaults(cfg *app.Config) {
	def := app.DefaultConfig()
	set := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	if len(cfg.InputCandidates) == 0 {
		cfg.InputCandidates = def.InputCandidates
	}
	set(&cfg.MasterPath, def.MasterPath)
	set(&cfg.OutputPath, def.OutputPath)
	set(&cfg.ReportsDir, def.ReportsDir)
	set(&cfg.OverridesPath, def.OverridesPath)
	set(&cfg.CatalogPath, def.CatalogPath)
	set(&cfg.AssetsDir, def.AssetsDir)
}
