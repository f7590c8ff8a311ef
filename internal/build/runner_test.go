package build

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"git.home.luguber.info/inful/tagindex/internal/errors"
)

func runnerState() *PassState {
	return newPassState(nil, NewPassReport())
}

func TestRunStagesRecordsDurationsAndContinuesOnWarning(t *testing.T) {
	ps := runnerState()
	var order []StageName

	stages := NewPipeline().
		Add(StageScanDocs, func(context.Context, *PassState) error {
			order = append(order, StageScanDocs)
			return NewWarnStageError(StageScanDocs, fmt.Errorf("degraded"))
		}).
		Add(StageRenderPages, func(context.Context, *PassState) error {
			order = append(order, StageRenderPages)
			return nil
		}).
		Build()

	if err := RunStages(context.Background(), ps, stages, nil); err != nil {
		t.Fatalf("warnings must not abort: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("expected both stages to run, got %v", order)
	}
	if _, ok := ps.Report.StageDurations[string(StageScanDocs)]; !ok {
		t.Fatal("expected scan_docs duration recorded")
	}
	if ps.Report.StageErrorKinds[StageScanDocs] != StageErrorWarning {
		t.Fatalf("expected warning kind recorded, got %v", ps.Report.StageErrorKinds[StageScanDocs])
	}
	if len(ps.Report.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(ps.Report.Issues))
	}
	if ps.Report.StageCounts[StageRenderPages].Success != 1 {
		t.Fatal("expected render_pages success count")
	}
}

func TestRunStagesAbortsOnFatal(t *testing.T) {
	ps := runnerState()
	ran := false

	stages := NewPipeline().
		Add(StageScanDocs, func(context.Context, *PassState) error {
			return NewFatalStageError(StageScanDocs, fmt.Errorf("no docs dir"))
		}).
		Add(StageRenderPages, func(context.Context, *PassState) error {
			ran = true
			return nil
		}).
		Build()

	err := RunStages(context.Background(), ps, stages, nil)
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if ran {
		t.Fatal("stages after a fatal must not run")
	}
	if ps.Report.StageCounts[StageScanDocs].Fatal != 1 {
		t.Fatalf("expected fatal count, got %+v", ps.Report.StageCounts[StageScanDocs])
	}
}

func TestRunStagesHonorsCancellation(t *testing.T) {
	ps := runnerState()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	stages := NewPipeline().
		Add(StageScanDocs, func(context.Context, *PassState) error {
			ran = true
			return nil
		}).
		Build()

	err := RunStages(ctx, ps, stages, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if ran {
		t.Fatal("stage must not run after cancellation")
	}
	var se *StageError
	if !stdErrors.As(err, &se) || se.Kind != StageErrorCanceled {
		t.Fatalf("expected canceled stage error, got %v", err)
	}
	if len(ps.Report.Issues) != 1 || ps.Report.Issues[0].Code != IssueCanceled {
		t.Fatalf("expected PASS_CANCELED issue, got %v", ps.Report.Issues)
	}
}

func TestClassifyStageResult(t *testing.T) {
	t.Run("nil error is success", func(t *testing.T) {
		out := ClassifyStageResult(StageScanDocs, nil)
		if out.Result != StageResultSuccess || out.Abort {
			t.Fatalf("unexpected outcome: %+v", out)
		}
	})

	t.Run("plain error escalates to fatal", func(t *testing.T) {
		out := ClassifyStageResult(StageScanDocs, fmt.Errorf("plain"))
		if out.Result != StageResultFatal || !out.Abort {
			t.Fatalf("unexpected outcome: %+v", out)
		}
		if out.IssueCode != IssueGenericStageError {
			t.Fatalf("expected generic code, got %s", out.IssueCode)
		}
	})

	t.Run("warning continues", func(t *testing.T) {
		out := ClassifyStageResult(StagePersistState,
			NewWarnStageError(StagePersistState, fmt.Errorf("db locked")))
		if out.Abort {
			t.Fatal("warnings must not abort")
		}
		if out.Result != StageResultWarning || out.Severity != SeverityWarning {
			t.Fatalf("unexpected outcome: %+v", out)
		}
		if out.IssueCode != IssueStateWriteFailed {
			t.Fatalf("expected STATE_WRITE_FAILED, got %s", out.IssueCode)
		}
	})

	t.Run("stage specific codes", func(t *testing.T) {
		cases := map[StageName]ReportIssueCode{
			StageSyncSource:    IssueGitSyncFailed,
			StagePersistState:  IssueStateWriteFailed,
			StagePublishEvents: IssueEventPublish,
		}
		for stage, want := range cases {
			out := ClassifyStageResult(stage, NewWarnStageError(stage, fmt.Errorf("x")))
			if out.IssueCode != want {
				t.Fatalf("stage %s: expected %s, got %s", stage, want, out.IssueCode)
			}
		}
	})

	t.Run("template category maps to TEMPLATE_ERROR", func(t *testing.T) {
		cause := errors.TemplateError("tags.md.tmpl", fmt.Errorf("parse"))
		out := ClassifyStageResult(StageRenderPages, NewFatalStageError(StageRenderPages, cause))
		if out.IssueCode != IssueTemplateError {
			t.Fatalf("expected TEMPLATE_ERROR, got %s", out.IssueCode)
		}
	})

	t.Run("canceled aborts", func(t *testing.T) {
		out := ClassifyStageResult(StageScanDocs,
			NewCanceledStageError(StageScanDocs, context.Canceled))
		if !out.Abort || out.Result != StageResultCanceled || out.IssueCode != IssueCanceled {
			t.Fatalf("unexpected outcome: %+v", out)
		}
	})

	t.Run("transient flows through", func(t *testing.T) {
		cause := errors.WrapRetryable(fmt.Errorf("timeout"), errors.CategoryGit, errors.SeverityWarning, "pull")
		out := ClassifyStageResult(StageSyncSource, NewWarnStageError(StageSyncSource, cause))
		if !out.Transient {
			t.Fatal("expected transient outcome")
		}
	})
}

func TestRunStagesStageDurationIsMeasured(t *testing.T) {
	ps := runnerState()
	stages := NewPipeline().
		Add(StageAggregateTags, func(context.Context, *PassState) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		}).
		Build()

	if err := RunStages(context.Background(), ps, stages, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ps.Report.StageDurations[string(StageAggregateTags)] < 5*time.Millisecond {
		t.Fatalf("expected measured duration >= 5ms, got %v",
			ps.Report.StageDurations[string(StageAggregateTags)])
	}
}
