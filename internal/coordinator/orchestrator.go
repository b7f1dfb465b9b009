package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/graceseason/storefront/internal/coordinator/finalizelog"
)

// Step is a single unit of work in a finalize run.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
}

// BestEffort steps may fail without failing the run. Their errors are kept
// in the log.
type BestEffort interface {
	BestEffort() bool
}

// Outputter steps expose a JSON result that is written to the log with the
// step's STEP_DONE record and with the final COMPLETED record.
type Outputter interface {
	Output() string
}

// Orchestrator executes steps sequentially and records every transition.
type Orchestrator struct {
	runID   string
	steps   []Step
	logRepo finalizelog.Repository
}

func NewOrchestrator(runID string, steps []Step, repo finalizelog.Repository) *Orchestrator {
	return &Orchestrator{runID: runID, steps: steps, logRepo: repo}
}

// Start writes the STARTED record with payload and then runs the steps.
// Nothing is executed when the STARTED record cannot be written. The first
// failing required step aborts the run with a FAILED record.
func (o *Orchestrator) Start(ctx context.Context, payload string) error {
	if err := o.logRepo.Save(ctx, finalizelog.NewRecord(ctx, o.runID, finalizelog.StatusStarted, "", payload, "", nil)); err != nil {
		return fmt.Errorf("record pending finalize: %w", err)
	}

	var (
		softErrs []string
		result   string
		lastStep string
	)

	for _, step := range o.steps {
		lastStep = step.Name()
		slog.InfoContext(ctx, "executing step", "payment_id", o.runID, "step", step.Name())

		if err := step.Execute(ctx); err != nil {
			if isBestEffort(step) {
				slog.WarnContext(ctx, "best-effort step failed", "payment_id", o.runID, "step", step.Name(), "error", err)
				softErrs = append(softErrs, fmt.Sprintf("%s failed: %v", step.Name(), err))
				continue
			}

			slog.ErrorContext(ctx, "step failed", "payment_id", o.runID, "step", step.Name(), "error", err)
			errs := append(softErrs, fmt.Sprintf("%s failed: %v", step.Name(), err))
			o.save(ctx, finalizelog.NewRecord(ctx, o.runID, finalizelog.StatusFailed, step.Name(), "", "", errs))
			return err
		}

		out := ""
		if op, ok := step.(Outputter); ok {
			out = op.Output()
			if out != "" {
				result = out
			}
		}
		o.save(ctx, finalizelog.NewRecord(ctx, o.runID, finalizelog.StatusStepDone, step.Name(), "", out, nil))
	}

	o.save(ctx, finalizelog.NewRecord(ctx, o.runID, finalizelog.StatusCompleted, lastStep, "", result, softErrs))
	slog.InfoContext(ctx, "finalize completed", "payment_id", o.runID)
	return nil
}

// save never fails the run: the commerce order may already exist.
func (o *Orchestrator) save(ctx context.Context, rec *finalizelog.Record) {
	if err := o.logRepo.Save(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to write finalize log", "payment_id", o.runID, "status", rec.Status, "error", err)
	}
}

func isBestEffort(s Step) bool {
	be, ok := s.(BestEffort)
	return ok && be.BestEffort()
}
