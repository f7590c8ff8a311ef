package build

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/tagindex/internal/errors"
)

// Stage is a discrete unit of work in a tag pass.
type Stage func(ctx context.Context, ps *PassState) error

// StageName is a strongly-typed identifier for a pass stage.
type StageName string

// Canonical stage names.
const (
	StageSyncSource    StageName = "sync_source"
	StageResolveConfig StageName = "resolve_config"
	StageScanDocs      StageName = "scan_docs"
	StageAggregateTags StageName = "aggregate_tags"
	StageRenderPages   StageName = "render_pages"
	StageRegisterFiles StageName = "register_files"
	StageVerifyLinks   StageName = "verify_links"
	StagePersistState  StageName = "persist_state"
	StagePublishEvents StageName = "publish_events"
	StageWriteReport   StageName = "write_report"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Pass must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether the underlying error condition is likely
// transient. Cancellation is never transient; everything else defers to the
// retryability of the wrapped error.
func (e *StageError) Transient() bool {
	if e == nil || e.Kind == StageErrorCanceled {
		return false
	}
	return errors.IsRetryable(e.Err)
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 10)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a copy of the stage definitions; later Add calls do not
// affect the returned slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
