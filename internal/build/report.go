package build

import (
	"bytes"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/tagindex/internal/metrics"
	"git.home.luguber.info/inful/tagindex/internal/render"
	"git.home.luguber.info/inful/tagindex/internal/version"
)

// PassOutcome is the typed enumeration of final pass result states.
type PassOutcome string

const (
	OutcomeSuccess  PassOutcome = "success"
	OutcomePartial  PassOutcome = "partial"
	OutcomeFailed   PassOutcome = "failed"
	OutcomeCanceled PassOutcome = "canceled"
)

// ReportIssueCode enumerates machine-parseable issue identifiers.
// These codes are stable contract and should only be appended (no reuse on removal).
type ReportIssueCode string

const (
	IssueParseError        ReportIssueCode = "PARSE_ERROR"
	IssueInvalidYear       ReportIssueCode = "INVALID_YEAR"
	IssueInvalidTags       ReportIssueCode = "INVALID_TAGS"
	IssueDanglingLink      ReportIssueCode = "DANGLING_LINK"
	IssueOrphanPage        ReportIssueCode = "ORPHAN_PAGE"
	IssueTemplateError     ReportIssueCode = "TEMPLATE_ERROR"
	IssueGitSyncFailed     ReportIssueCode = "GIT_SYNC_FAILED"
	IssueStateWriteFailed  ReportIssueCode = "STATE_WRITE_FAILED"
	IssueEventPublish      ReportIssueCode = "EVENT_PUBLISH_FAILED"
	IssueCanceled          ReportIssueCode = "PASS_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured taxonomy entry describing a discrete problem
// encountered during a pass.
type ReportIssue struct {
	Code      ReportIssueCode `json:"code"`
	Stage     StageName       `json:"stage"`
	Severity  IssueSeverity   `json:"severity"`
	Path      string          `json:"path,omitempty"` // affected document or page, when known
	Message   string          `json:"message"`
	Transient bool            `json:"transient"`
}

// PageSummary records one generated page in the report.
type PageSummary struct {
	Kind        string `json:"kind"`
	Tag         string `json:"tag,omitempty"`
	Filename    string `json:"filename"`
	Fingerprint string `json:"fingerprint"`
	Unchanged   bool   `json:"unchanged"`
}

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// PassReport captures high-level metrics about one tag pass.
type PassReport struct {
	SchemaVersion   int
	BuildID         string
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing pass abortion (at most one today)
	Warnings        []error // non-fatal issues (stale checkout, failed publish, ...)
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount

	DocumentsScanned int
	TaggedDocuments  int
	TagCount         int
	PagesWritten     int
	PagesUnchanged   int
	LinksChecked     int

	// Outcome is the single source of truth result (typed).
	Outcome PassOutcome

	// Issues captures structured machine-parsable taxonomy entries for
	// automation; severity mirrors into Errors/Warnings when a cause exists.
	Issues []ReportIssue

	// IndexTemplates records which source served each page kind.
	IndexTemplates map[string]render.TemplateInfo

	// Pages lists every generated page with its fingerprint.
	Pages []PageSummary

	TagIndexVersion string
}

// NewPassReport constructs a report with a fresh build id.
func NewPassReport() *PassReport {
	return &PassReport{
		SchemaVersion:   1,
		BuildID:         uuid.NewString(),
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
		IndexTemplates:  make(map[string]render.TemplateInfo),
		TagIndexVersion: version.Version,
	}
}

// AddIssue appends a structured issue and mirrors severity into the
// Errors/Warnings slices when a concrete error accompanies it.
func (r *PassReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, path, msg string, transient bool, err error) {
	r.Issues = append(r.Issues, ReportIssue{
		Code: code, Stage: stage, Severity: severity, Path: path, Message: msg, Transient: transient,
	})
	if err != nil {
		switch severity {
		case SeverityError:
			r.Errors = append(r.Errors, err)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, err)
		}
	}
}

// Finish sets the end time of the report.
func (r *PassReport) Finish() { r.End = time.Now() }

// RecordStageResult updates report counters and emits metrics (if recorder non-nil).
func (r *PassReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if r.StageCounts == nil {
		r.StageCounts = make(map[StageName]StageCount)
	}
	sc := r.StageCounts[stage]
	switch res {
	case StageResultSuccess:
		sc.Success++
		if recorder != nil {
			recorder.IncStageResult(string(stage), metrics.ResultSuccess)
		}
	case StageResultWarning:
		sc.Warning++
		if recorder != nil {
			recorder.IncStageResult(string(stage), metrics.ResultWarning)
		}
	case StageResultFatal:
		sc.Fatal++
		if recorder != nil {
			recorder.IncStageResult(string(stage), metrics.ResultFatal)
		}
	case StageResultCanceled:
		sc.Canceled++
		if recorder != nil {
			recorder.IncStageResult(string(stage), metrics.ResultCanceled)
		}
	case StageResultSkipped:
		// No counters for skipped yet
	}
	r.StageCounts[stage] = sc
}

// Summary returns a human-readable single-line summary.
func (r *PassReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("docs=%d tagged=%d tags=%d written=%d unchanged=%d duration=%s errors=%d warnings=%d issues=%d outcome=%s",
		r.DocumentsScanned, r.TaggedDocuments, r.TagCount, r.PagesWritten, r.PagesUnchanged,
		dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), len(r.Issues), string(r.Outcome))
}

// DeriveOutcome sets the Outcome field based on recorded errors, warnings
// and issues. Safe to call repeatedly; later calls see later issues.
func (r *PassReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if stdErrors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomePartial
		return
	}
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			r.Outcome = OutcomePartial
			return
		}
	}
	r.Outcome = OutcomeSuccess
}

// Persist writes the report atomically into the provided directory as
// tagindex-report.json plus a one-line tagindex-report.txt summary.
func (r *PassReport) Persist(dir string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(dir, "tagindex-report.json"), bytes.NewReader(jb)); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(dir, "tagindex-report.txt"), strings.NewReader(r.Summary()+"\n")); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}

// SanitizedCopy returns a shallow copy with error fields converted to
// strings for JSON friendliness.
func (r *PassReport) SanitizedCopy() *PassReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}

	if r.StageDurations == nil {
		r.StageDurations = map[string]time.Duration{}
	}
	if r.IndexTemplates == nil {
		r.IndexTemplates = map[string]render.TemplateInfo{}
	}
	if r.Issues == nil {
		r.Issues = []ReportIssue{}
	}
	if r.Pages == nil {
		r.Pages = []PageSummary{}
	}

	s := &PassReportSerializable{
		SchemaVersion:    r.SchemaVersion,
		BuildID:          r.BuildID,
		Start:            r.Start,
		End:              r.End,
		Errors:           make([]string, len(r.Errors)),
		Warnings:         make([]string, len(r.Warnings)),
		StageDurations:   r.StageDurations,
		StageErrorKinds:  sek,
		StageCounts:      stageCounts,
		DocumentsScanned: r.DocumentsScanned,
		TaggedDocuments:  r.TaggedDocuments,
		TagCount:         r.TagCount,
		PagesWritten:     r.PagesWritten,
		PagesUnchanged:   r.PagesUnchanged,
		LinksChecked:     r.LinksChecked,
		Outcome:          string(r.Outcome),
		Issues:           r.Issues,
		IndexTemplates:   r.IndexTemplates,
		Pages:            r.Pages,
		TagIndexVersion:  r.TagIndexVersion,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// PassReportSerializable mirrors PassReport but with string errors for JSON output.
type PassReportSerializable struct {
	SchemaVersion    int                            `json:"schema_version"`
	BuildID          string                         `json:"build_id"`
	Start            time.Time                      `json:"start"`
	End              time.Time                      `json:"end"`
	Errors           []string                       `json:"errors"`
	Warnings         []string                       `json:"warnings"`
	StageDurations   map[string]time.Duration       `json:"stage_durations"`
	StageErrorKinds  map[string]string              `json:"stage_error_kinds"`
	StageCounts      map[string]StageCount          `json:"stage_counts"`
	DocumentsScanned int                            `json:"documents_scanned"`
	TaggedDocuments  int                            `json:"tagged_documents"`
	TagCount         int                            `json:"tag_count"`
	PagesWritten     int                            `json:"pages_written"`
	PagesUnchanged   int                            `json:"pages_unchanged"`
	LinksChecked     int                            `json:"links_checked"`
	Outcome          string                         `json:"outcome"`
	Issues           []ReportIssue                  `json:"issues"`
	IndexTemplates   map[string]render.TemplateInfo `json:"index_templates,omitempty"`
	Pages            []PageSummary                  `json:"pages"`
	TagIndexVersion  string                         `json:"tagindex_version,omitempty"`
}
