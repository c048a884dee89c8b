// Package app wires the extraction stages into the gen, parse, check and
// coverage runs and writes their artifacts.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/epseditorial/internal/assemble"
	"github.com/hyperifyio/epseditorial/internal/classify"
	"github.com/hyperifyio/epseditorial/internal/coverage"
	"github.com/hyperifyio/epseditorial/internal/master"
	"github.com/hyperifyio/epseditorial/internal/segment"
	"github.com/hyperifyio/epseditorial/internal/source"
	"github.com/hyperifyio/epseditorial/internal/textnorm"
	"github.com/hyperifyio/epseditorial/internal/tokenize"
	"github.com/hyperifyio/epseditorial/internal/validate"
)

var (
	// ErrInputNotFound is returned when no audit report can be found.
	ErrInputNotFound = errors.New("input document not found")
	// ErrGateFailed is returned when a gating check reports an issue.
	ErrGateFailed = errors.New("validation gate failed")
)

type App struct {
	cfg  Config
	dict *classify.Dictionary
}

// New validates cfg and returns an App.
func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &App{cfg: cfg, dict: classify.MustDefault()}, nil
}

// run carries the products of every stage of one pass.
type run struct {
	input     source.Document
	doc       tokenize.Document
	headers   []tokenize.SessionHeader
	anchors   []tokenize.Anchor
	segments  segment.Result
	guide     segment.Guide
	expected  []string
	master    master.Result
	overrides assemble.Overrides
	catalog   []catalogEntry
	result    assemble.Result
}

func (a *App) inputPath() (string, error) {
	if p := trim(a.cfg.InputPath); p != "" {
		path, err := source.Resolve(p)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInputNotFound, err)
		}
		return path, nil
	}
	path, err := source.Resolve(a.cfg.InputCandidates...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInputNotFound, err)
	}
	return path, nil
}

// segmentInput runs tokenizing and segmentation over the audit report.
func (a *App) segmentInput(ctx context.Context) (*run, error) {
	path, err := a.inputPath()
	if err != nil {
		return nil, err
	}
	in, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	r := &run{input: in}
	r.doc = tokenize.Tokenize(in.Text)
	r.anchors = tokenize.FindAnchors(r.doc)
	r.headers = tokenize.FindSessionHeaders(r.doc)
	log.Debug().Str("input", path).Str("format", string(in.Format)).Int("lines", len(r.doc.Lines)).Int("anchors", len(r.anchors)).Msg("tokenized")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.expected, err = assemble.ExpectedCodes(r.headers)
	if err != nil {
		return nil, err
	}
	r.segments, err = segment.Segment(r.doc, r.anchors)
	if err != nil {
		return nil, err
	}
	r.guide = segment.ExtractGuide(r.doc, r.headers, r.anchors, r.segments.Leaks)
	log.Debug().Int("expected", len(r.expected)).Int("blocks", len(r.segments.Blocks)).Int("leaks", len(r.segments.Leaks)).Msg("segmented")
	return r, ctx.Err()
}

// build runs every stage and assembles the records.
func (a *App) build(ctx context.Context) (*run, error) {
	r, err := a.segmentInput(ctx)
	if err != nil {
		return nil, err
	}

	r.master, err = master.Load(a.cfg.MasterPath)
	switch {
	case errors.Is(err, master.ErrNotFound):
		log.Warn().Str("path", a.cfg.MasterPath).Msg("master file not found; continuing without it")
	case err != nil:
		return nil, err
	default:
		warnUnexpectedMaster(r.master, r.expected)
	}

	r.overrides, err = assemble.LoadOverrides(a.cfg.OverridesPath)
	if err != nil {
		return nil, err
	}
	r.catalog, err = loadCatalog(a.cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asm := assemble.Assembler{
		Dict:      a.dict,
		Master:    r.master.Entries,
		Overrides: r.overrides,
		Titles:    catalogTitles(r.catalog),
	}
	r.result, err = asm.Assemble(r.segments.Blocks, r.expected)
	if err != nil {
		var cs *assemble.CodeSetError
		if errors.As(err, &cs) {
			logAuditContext(r, cs.Extra)
		}
		return nil, err
	}
	log.Info().Int("codes", len(r.result.Records)).Int("fallbacks", len(r.result.Fallbacks)).Int("fallbacks_before_master", r.result.FallbacksBefore).Msg("records assembled")
	return r, nil
}

func warnUnexpectedMaster(m master.Result, expected []string) {
	want := make(map[string]bool, len(expected))
	for _, c := range expected {
		want[c] = true
	}
	var extra []string
	for _, c := range m.Codes() {
		if !want[c] {
			extra = append(extra, c)
		}
	}
	if len(extra) == 0 {
		return
	}
	log.Warn().Strs("codes", extra).Msg("master entries outside the expected codes are ignored")
	for _, c := range extra {
		log.Debug().Str("code", c).Strs("context", lineContext(m.Lines, m.CodeLines[c], contextRadius)).Msg("master block context")
	}
}

// contextRadius is the number of lines shown on each side of a code line.
const contextRadius = 2

// logAuditContext prints the audit lines around each unexpected block.
func logAuditContext(r *run, codes []string) {
	for _, c := range codes {
		b, ok := r.segments.Blocks[c]
		if !ok {
			continue
		}
		log.Error().Str("code", c).Str("source", string(b.Source)).Strs("context", lineContext(r.doc.Lines, b.StartLine, contextRadius)).Msg("unexpected block in audit report")
	}
}

// lineContext returns the lines within radius of line, numbered from 1 and
// with the center line marked.
func lineContext(lines []string, line, radius int) []string {
	if line < 0 || line >= len(lines) {
		return nil
	}
	lo, hi := max(0, line-radius), min(len(lines), line+radius+1)
	out := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		mark := " "
		if i == line {
			mark = ">"
		}
		out = append(out, fmt.Sprintf("%s%d: %s", mark, i+1, lines[i]))
	}
	return out
}

// checkGhosts fails when a published code has neither source data nor an
// image.
func (a *App) checkGhosts(r *run) error {
	var listing []string
	for _, rec := range r.result.Records {
		listing = append(listing, rec.Code)
	}
	listing = append(listing, r.overrides.Codes()...)
	for _, e := range r.catalog {
		listing = append(listing, e.Code)
	}
	src := append(r.segments.Codes(), r.master.Codes()...)
	assets, err := assetCodes(a.cfg.AssetsDir)
	if err != nil {
		return err
	}
	if ghosts := validate.GhostCodes(listing, src, assets); len(ghosts) > 0 {
		return &GhostCodesError{Codes: ghosts}
	}
	return nil
}

// Generate runs the full pipeline and writes the generated module, the
// fallback report and the manifest sidecar.
func (a *App) Generate(ctx context.Context) error {
	r, err := a.build(ctx)
	if err != nil {
		return err
	}
	if err := a.checkGhosts(r); err != nil {
		return err
	}

	extras := assemble.MasterExtras(r.master.Entries, r.expected)
	out, err := renderGenerated(r.result.Records, extras, r.guide)
	if err != nil {
		return err
	}
	if err := writeFile(a.cfg.OutputPath, []byte(out)); err != nil {
		return err
	}

	fbPath := filepath.Join(a.cfg.ReportsDir, fallbackReportName)
	if err := writeJSON(fbPath, fallbackReport(r.result.Fallbacks)); err != nil {
		return err
	}
	if len(r.result.Fallbacks) > 0 {
		var used []string
		for _, f := range r.result.Fallbacks {
			used = append(used, fmt.Sprintf("%s (%s)", f.Code, strings.Join(f.Fields, ", ")))
		}
		log.Warn().Int("count", len(used)).Str("report", fbPath).Msgf("fallback used for: %s", strings.Join(used, ", "))
	}

	m := manifest{
		Inputs:                []manifestInput{{Role: "audit", Path: r.input.Path, SHA256: r.input.SHA256}},
		Records:               len(r.result.Records),
		Fallbacks:             len(r.result.Fallbacks),
		FallbacksBeforeMaster: r.result.FallbacksBefore,
		Output:                a.cfg.OutputPath,
		OutputSHA256:          computeSHA256Hex(out),
	}
	if r.master.SHA256 != "" {
		m.Inputs = append(m.Inputs, manifestInput{Role: "master", Path: a.cfg.MasterPath, SHA256: r.master.SHA256})
	}
	mb, err := marshalManifestJSON(m)
	if err != nil {
		return err
	}
	if err := writeFile(deriveManifestSidecarPath(a.cfg.OutputPath), mb); err != nil {
		return err
	}
	log.Info().Int("codes", len(r.result.Records)).Str("out", a.cfg.OutputPath).Msg("editorial generated")
	return nil
}

// Parse runs the tokenizer, segmenter and classifier and writes an
// inspection report. It returns the report path.
func (a *App) Parse(ctx context.Context) (string, error) {
	r, err := a.segmentInput(ctx)
	if err != nil {
		return "", err
	}
	rep := parsedReport{
		Source:   r.input.Path,
		Lines:    len(r.doc.Lines),
		Expected: r.expected,
		Codes:    r.segments.Codes(),
		Leaks:    r.segments.Leaks,
	}
	if rep.Leaks == nil {
		rep.Leaks = []segment.Leak{}
	}
	for _, b := range r.segments.Ordered() {
		sections := classify.All(classify.SliceForFields(b.Text), a.dict)
		if sections == nil {
			sections = []classify.Section{}
		}
		rep.Blocks = append(rep.Blocks, parsedBlock{Code: b.Code, Source: b.Source, StartLine: b.StartLine, EndLine: b.EndLine, Sections: sections})
	}
	path := filepath.Join(a.cfg.ReportsDir, parsedReportName)
	if err := writeJSON(path, rep); err != nil {
		return "", err
	}
	log.Info().Int("codes", len(rep.Codes)).Int("leaks", len(rep.Leaks)).Str("out", path).Msg("audit report parsed")
	return path, nil
}

// Check runs the named validators (all when names is empty) over the
// assembled records. With gate set any issue fails the run.
func (a *App) Check(ctx context.Context, names []string, gate bool) ([]validate.Issue, error) {
	validators, err := validate.ByName(names...)
	if err != nil {
		return nil, err
	}
	r, err := a.build(ctx)
	if err != nil {
		return nil, err
	}
	issues := validate.Run(r.result.Records, validators...)
	validate.Sort(issues)
	if len(issues) == 0 {
		log.Info().Int("codes", len(r.result.Records)).Int("validators", len(validators)).Msg("editorial check passed")
		return nil, nil
	}
	ev := log.Warn()
	if gate || a.cfg.Gate {
		ev = log.Error()
	}
	ev.Int("count", len(issues)).Msg("editorial check failed")
	for _, is := range issues {
		log.Warn().Str("code", is.Code).Str("field", is.Field).Str("excerpt", is.Excerpt).Msg(is.Message)
	}
	if gate || a.cfg.Gate {
		return issues, fmt.Errorf("%w: %d issues", ErrGateFailed, len(issues))
	}
	return issues, nil
}

// Coverage reconciles source paragraphs with the assembled records and
// writes the JSON, markdown and optional PDF reports.
func (a *App) Coverage(ctx context.Context) (coverage.Report, error) {
	r, err := a.build(ctx)
	if err != nil {
		return coverage.Report{}, err
	}
	rep := coverage.Reconcile(r.doc, r.segments, r.guide, r.result.Records)
	rep.Source = r.input.Path

	jsonPath := filepath.Join(a.cfg.ReportsDir, coverageJSONName)
	if err := coverage.WriteJSON(jsonPath, rep); err != nil {
		return rep, err
	}
	md := coverage.RenderMarkdown(rep)
	if err := writeFile(filepath.Join(a.cfg.ReportsDir, coverageMDName), []byte(md)); err != nil {
		return rep, err
	}
	if a.cfg.CoveragePDF {
		if err := coverage.WritePDF(md, filepath.Join(a.cfg.ReportsDir, coveragePDFName)); err != nil {
			return rep, fmt.Errorf("write coverage pdf: %w", err)
		}
	}

	if err := rep.Err(); err != nil {
		log.Error().Int("detected", rep.Detected).Int("injected", rep.Injected).Int("unassigned", len(rep.Unassigned)).Str("report", jsonPath).Msg("editorial coverage check failed")
		for i, m := range rep.Missing {
			if i == 20 {
				log.Error().Msgf("... (see %s for the full list)", jsonPath)
				break
			}
			log.Error().Str("code", m.Code).Msg(textnorm.Compact(m.Excerpt))
		}
		for i, l := range rep.Unassigned {
			if i == 20 {
				log.Error().Msgf("... (see %s for the full list)", jsonPath)
				break
			}
			log.Error().Msg("unassigned " + textnorm.Compact(l))
		}
		return rep, err
	}
	log.Info().Int("detected", rep.Detected).Int("injected", rep.Injected).Str("report", jsonPath).Msg("editorial coverage check passed")
	return rep, nil
}
