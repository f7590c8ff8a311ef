package build

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
	"git.home.luguber.info/inful/tagindex/internal/metrics"
)

// StageOutcome is the normalized result of stage execution.
type StageOutcome struct {
	Stage     StageName
	Error     *StageError
	Result    StageResult
	IssueCode ReportIssueCode
	Severity  IssueSeverity
	Transient bool
	Abort     bool
}

// RunStages executes stages in order, recording timing and stopping on the
// first fatal error.
func RunStages(ctx context.Context, ps *PassState, stages []StageDef, recorder metrics.Recorder) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			ps.Report.StageErrorKinds[st.Name] = se.Kind
			ps.Report.AddIssue(IssueCanceled, st.Name, SeverityError, "", se.Error(), false, se)
			ps.Report.RecordStageResult(st.Name, StageResultCanceled, recorder)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, ps)
		dur := time.Since(t0)

		ps.Report.StageDurations[string(st.Name)] = dur
		if recorder != nil {
			recorder.ObserveStageDuration(string(st.Name), dur)
		}

		out := ClassifyStageResult(st.Name, err)

		if out.Error != nil {
			ps.Report.StageErrorKinds[st.Name] = out.Error.Kind
			ps.Report.AddIssue(out.IssueCode, out.Stage, out.Severity, "", out.Error.Error(), out.Transient, out.Error)
		}

		ps.Report.RecordStageResult(st.Name, out.Result, recorder)

		slog.Debug("Stage complete",
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur)/float64(time.Millisecond)),
			slog.String("result", string(out.Result)))

		if out.Abort {
			if out.Error != nil {
				return out.Error
			}
			return fmt.Errorf("stage %s aborted", st.Name)
		}
	}
	return nil
}

// ClassifyStageResult converts a raw error from a stage into a StageOutcome.
func ClassifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}

	var se *StageError
	if !stdErrors.As(err, &se) {
		// Not a StageError - treat as fatal
		se = NewFatalStageError(stage, err)
		return StageOutcome{
			Stage:     stage,
			Error:     se,
			Result:    StageResultFatal,
			IssueCode: IssueGenericStageError,
			Severity:  SeverityError,
			Abort:     true,
		}
	}

	if se.Kind == StageErrorCanceled {
		return StageOutcome{
			Stage:     stage,
			Error:     se,
			Result:    StageResultCanceled,
			IssueCode: IssueCanceled,
			Severity:  SeverityError,
			Abort:     true,
		}
	}

	return StageOutcome{
		Stage:     stage,
		Error:     se,
		Result:    resultFromStageErrorKind(se.Kind),
		IssueCode: classifyIssueCode(se),
		Severity:  severityFromStageErrorKind(se.Kind),
		Transient: se.Transient(),
		Abort:     se.Kind == StageErrorFatal,
	}
}

// resultFromStageErrorKind maps a StageErrorKind to a StageResult.
func resultFromStageErrorKind(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

// severityFromStageErrorKind maps StageErrorKind to IssueSeverity.
func severityFromStageErrorKind(k StageErrorKind) IssueSeverity {
	if k == StageErrorWarning {
		return SeverityWarning
	}
	return SeverityError
}

// classifyIssueCode determines the issue code from the stage and the error
// category of the cause.
func classifyIssueCode(se *StageError) ReportIssueCode {
	switch se.Stage {
	case StageSyncSource:
		return IssueGitSyncFailed
	case StagePersistState:
		return IssueStateWriteFailed
	case StagePublishEvents:
		return IssueEventPublish
	}
	if errors.IsCategory(se.Err, errors.CategoryTemplate) {
		return IssueTemplateError
	}
	return IssueGenericStageError
}
