// Package build orchestrates one tag pass as an ordered stage pipeline:
// sync the optional git source, resolve the site configuration, scan the
// docs tree, aggregate tags, render pages, register them with the host file
// collection, verify link integrity, then persist history, publish events
// and write the pass report.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/tagindex/internal/config"
	"git.home.luguber.info/inful/tagindex/internal/docmodel"
	"git.home.luguber.info/inful/tagindex/internal/docs"
	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/events"
	"git.home.luguber.info/inful/tagindex/internal/git"
	"git.home.luguber.info/inful/tagindex/internal/linkverify"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
	"git.home.luguber.info/inful/tagindex/internal/metrics"
	"git.home.luguber.info/inful/tagindex/internal/render"
	"git.home.luguber.info/inful/tagindex/internal/site"
	"git.home.luguber.info/inful/tagindex/internal/state"
	"git.home.luguber.info/inful/tagindex/internal/tags"
)

// Builder runs tag passes for a fixed configuration. Optional services are
// attached fluently; absent services skip their stage.
type Builder struct {
	cfg       *config.Config
	recorder  metrics.Recorder
	store     *state.Store
	publisher *events.Publisher
	syncer    *git.Syncer
}

// NewBuilder creates a Builder for the given configuration.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg, recorder: metrics.NoopRecorder{}}
}

// WithRecorder attaches a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	b.recorder = r
	return b
}

// WithStore attaches a pass history store, enabling the persist_state stage.
func (b *Builder) WithStore(s *state.Store) *Builder {
	b.store = s
	return b
}

// WithPublisher attaches an event publisher, enabling the publish_events stage.
func (b *Builder) WithPublisher(p *events.Publisher) *Builder {
	b.publisher = p
	return b
}

// WithSyncer attaches a git source syncer, enabling the sync_source stage.
func (b *Builder) WithSyncer(s *git.Syncer) *Builder {
	b.syncer = s
	return b
}

// Run executes one pass and returns its report. The report is returned for
// failed passes too, with the abort error alongside.
func (b *Builder) Run(ctx context.Context) (*PassReport, error) {
	report := NewPassReport()
	ps := newPassState(b.cfg, report)
	t0 := time.Now()

	slog.Info("Starting tag pass", logfields.BuildID(report.BuildID))

	stages := NewPipeline().
		AddIf(b.syncer != nil, StageSyncSource, b.stageSyncSource).
		Add(StageResolveConfig, b.stageResolveConfig).
		Add(StageScanDocs, b.stageScanDocs).
		Add(StageAggregateTags, b.stageAggregateTags).
		Add(StageRenderPages, b.stageRenderPages).
		Add(StageRegisterFiles, b.stageRegisterFiles).
		Add(StageVerifyLinks, b.stageVerifyLinks).
		AddIf(b.store != nil, StagePersistState, b.stagePersistState).
		AddIf(b.publisher != nil, StagePublishEvents, b.stagePublishEvents).
		Add(StageWriteReport, b.stageWriteReport).
		Build()

	err := RunStages(ctx, ps, stages, b.recorder)
	if report.End.IsZero() {
		report.Finish()
	}
	// Re-derive so warnings recorded by the final stages still count.
	report.DeriveOutcome()
	if err != nil {
		// The write_report stage never ran; persist what we have.
		if dir := b.reportDir(ps); dir != "" {
			if perr := report.Persist(dir); perr != nil {
				slog.Warn("Report persist after abort failed", logfields.Error(perr))
			}
		}
	}
	b.observePass(report, time.Since(t0))
	return report, err
}

func (b *Builder) observePass(report *PassReport, d time.Duration) {
	if b.recorder == nil {
		return
	}
	b.recorder.ObservePassDuration(d, string(report.Outcome))
	b.recorder.IncPassOutcome(string(report.Outcome))
}

// reportDir resolves where reports land: the configured directory when set,
// otherwise beside the tags folder.
func (b *Builder) reportDir(ps *PassState) string {
	if b.cfg.Report.Dir != "" {
		return b.cfg.Report.Dir
	}
	if ps.Resolved.TagsDir != "" {
		return filepath.Dir(ps.Resolved.TagsDir)
	}
	return ""
}

func (b *Builder) stageSyncSource(ctx context.Context, ps *PassState) error {
	path, err := b.syncer.Sync(ctx)
	ps.CheckoutPath = path
	if err != nil {
		if path != "" {
			// Pull failed but a previous checkout survives; scan it stale.
			return NewWarnStageError(StageSyncSource, err)
		}
		return NewFatalStageError(StageSyncSource, err)
	}
	return nil
}

func (b *Builder) stageResolveConfig(_ context.Context, ps *PassState) error {
	siteCfg := b.cfg.SiteSettings()
	if ps.CheckoutPath != "" {
		siteCfg.DocsDir = filepath.Join(ps.CheckoutPath, siteCfg.DocsDir)
	}
	res, err := site.Resolve(siteCfg, b.cfg.TagOptions())
	if err != nil {
		return NewFatalStageError(StageResolveConfig, err)
	}
	ps.SiteCfg = siteCfg
	ps.Resolved = res
	return nil
}

func (b *Builder) stageScanDocs(_ context.Context, ps *PassState) error {
	scanner := docs.NewScanner(ps.SiteCfg.DocsDir, ps.Resolved.TagsDir)
	metas, problems, err := scanner.Scan()
	if err != nil {
		return NewFatalStageError(StageScanDocs, err)
	}
	ps.Docs = metas
	ps.Problems = problems
	ps.Report.DocumentsScanned = len(metas)
	b.recorder.AddDocumentsScanned(len(metas))

	parseFailures := 0
	for _, p := range problems {
		if p.Field == "" {
			parseFailures++
		}
		ps.Report.AddIssue(issueForProblem(p), StageScanDocs, SeverityWarning, p.Path, p.Reason, false, nil)
	}
	if parseFailures > 0 {
		b.recorder.AddParseFailures(parseFailures)
	}
	if b.cfg.Strict && parseFailures > 0 {
		err := errors.New(errors.CategoryFrontmatter, errors.SeverityFatal,
			fmt.Sprintf("%d documents failed front matter parsing", parseFailures))
		return NewFatalStageError(StageScanDocs, err)
	}
	return nil
}

// issueForProblem maps a scan problem onto its stable issue code.
func issueForProblem(p docs.Problem) ReportIssueCode {
	switch p.Field {
	case docmodel.KeyYear:
		return IssueInvalidYear
	case docmodel.KeyTags:
		return IssueInvalidTags
	default:
		return IssueParseError
	}
}

func (b *Builder) stageAggregateTags(_ context.Context, ps *PassState) error {
	ps.Index = tags.Aggregate(ps.Docs)

	tagged := 0
	for _, d := range ps.Docs {
		if len(d.Tags) > 0 {
			tagged++
		}
	}
	ps.Report.TaggedDocuments = tagged
	ps.Report.TagCount = len(ps.Index.Groups)
	b.recorder.SetTagCount(len(ps.Index.Groups))

	slog.Info("Aggregated tags",
		logfields.Count(len(ps.Index.Groups)),
		slog.Int("tagged_documents", tagged))
	return nil
}

func (b *Builder) stageRenderPages(_ context.Context, ps *PassState) error {
	renderer := render.NewRenderer(render.Options{
		TagsDir:           ps.Resolved.TagsDir,
		IndexFilename:     ps.Resolved.IndexFilename,
		IndexTemplatePath: ps.Resolved.IndexTemplatePath,
	})
	pages, err := renderer.RenderAll(ps.Index)
	if err != nil {
		return NewFatalStageError(StageRenderPages, err)
	}
	ps.Pages = pages
	ps.Report.IndexTemplates = renderer.TemplateUsage()

	written, unchanged := 0, 0
	summaries := make([]PageSummary, 0, len(pages))
	for _, p := range pages {
		if p.Unchanged {
			unchanged++
		} else {
			written++
		}
		summaries = append(summaries, PageSummary{
			Kind: p.Kind, Tag: p.Tag, Filename: p.Filename,
			Fingerprint: p.Fingerprint, Unchanged: p.Unchanged,
		})
	}
	ps.Report.PagesWritten = written
	ps.Report.PagesUnchanged = unchanged
	ps.Report.Pages = summaries
	b.recorder.AddPagesWritten(written)
	b.recorder.AddPagesUnchanged(unchanged)
	return nil
}

func (b *Builder) stageRegisterFiles(_ context.Context, ps *PassState) error {
	files := site.NewFiles()
	site.RegisterPages(files, ps.SiteCfg, ps.Resolved, ps.Pages)
	ps.Files = files
	return nil
}

func (b *Builder) stageVerifyLinks(_ context.Context, ps *PassState) error {
	indexPath := filepath.Join(ps.Resolved.TagsDir, ps.Resolved.IndexFilename)
	result, err := linkverify.VerifyIndex(indexPath, ps.Pages)
	if err != nil {
		return NewFatalStageError(StageVerifyLinks, err)
	}
	ps.LinkResult = result
	ps.Report.LinksChecked = result.LinksChecked

	for _, f := range result.Findings {
		switch f.Code {
		case linkverify.CodeOrphanPage:
			ps.Report.AddIssue(IssueOrphanPage, StageVerifyLinks, SeverityWarning, f.Page,
				"generated page is not linked from the index", false, nil)
		default:
			ps.Report.AddIssue(IssueDanglingLink, StageVerifyLinks, SeverityWarning, f.Page,
				fmt.Sprintf("link target %q does not resolve to a generated page", f.Target), false, nil)
		}
	}
	if b.cfg.Strict && !result.Clean() {
		err := errors.New(errors.CategoryValidation, errors.SeverityFatal,
			fmt.Sprintf("link verification found %d violations", len(result.Findings)))
		return NewFatalStageError(StageVerifyLinks, err)
	}
	return nil
}

func (b *Builder) stagePersistState(ctx context.Context, ps *PassState) error {
	// Outcome as of persistence time; later stage failures re-derive it for
	// the report itself.
	ps.Report.DeriveOutcome()

	rec := state.PassRecord{
		BuildID:          ps.Report.BuildID,
		Started:          ps.Report.Start,
		Finished:         time.Now(),
		Outcome:          string(ps.Report.Outcome),
		Documents:        ps.Report.DocumentsScanned,
		Tagged:           ps.Report.TaggedDocuments,
		Tags:             ps.Report.TagCount,
		PagesWritten:     ps.Report.PagesWritten,
		PagesUnchanged:   ps.Report.PagesUnchanged,
		IndexFingerprint: indexFingerprint(ps.Pages),
	}
	if err := b.store.RecordPass(ctx, rec); err != nil {
		return NewWarnStageError(StagePersistState, err)
	}
	return nil
}

// indexFingerprint picks the index page fingerprint out of the page list.
func indexFingerprint(pages []render.Page) string {
	for _, p := range pages {
		if p.Kind == render.KindIndexPage {
			return p.Fingerprint
		}
	}
	return ""
}

func (b *Builder) stagePublishEvents(_ context.Context, ps *PassState) error {
	ps.Report.DeriveOutcome()

	ev := events.PassCompletedEvent{
		BuildID:        ps.Report.BuildID,
		Outcome:        string(ps.Report.Outcome),
		Start:          ps.Report.Start,
		End:            time.Now(),
		Documents:      ps.Report.DocumentsScanned,
		Tagged:         ps.Report.TaggedDocuments,
		Tags:           ps.Report.TagCount,
		PagesWritten:   ps.Report.PagesWritten,
		PagesUnchanged: ps.Report.PagesUnchanged,
		Issues:         len(ps.Report.Issues),
	}

	var firstErr error
	if err := b.publisher.PublishPassCompleted(ev); err != nil {
		firstErr = err
	}
	if ps.LinkResult != nil {
		for _, f := range ps.LinkResult.Findings {
			if f.Code != linkverify.CodeDanglingLink {
				continue
			}
			err := b.publisher.PublishDanglingLink(events.DanglingLinkEvent{
				BuildID: ps.Report.BuildID,
				Code:    f.Code,
				Page:    f.Page,
				Target:  f.Target,
			})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return NewWarnStageError(StagePublishEvents, firstErr)
	}
	return nil
}

func (b *Builder) stageWriteReport(_ context.Context, ps *PassState) error {
	ps.Report.Finish()
	ps.Report.DeriveOutcome()

	dir := b.reportDir(ps)
	if dir == "" {
		slog.Warn("No report directory resolvable, skipping report persist")
		return nil
	}
	if err := ps.Report.Persist(dir); err != nil {
		return NewWarnStageError(StageWriteReport,
			errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityWarning, "report persist failed"))
	}
	slog.Info("Pass complete",
		logfields.BuildID(ps.Report.BuildID),
		logfields.Outcome(string(ps.Report.Outcome)),
		slog.String("summary", ps.Report.Summary()))
	return nil
}
