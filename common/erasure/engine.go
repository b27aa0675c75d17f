package erasure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lyzr/accounts/common/logger"
)

// Engine erases one account per call: introspect, plan, delete, finalize,
// all inside a single transaction on a single connection.
type Engine struct {
	store  Store
	schema Schema
	log    *logger.Logger
}

// NewEngine creates an erasure engine
func NewEngine(store Store, schema Schema, log *logger.Logger) *Engine {
	return &Engine{
		store:  store,
		schema: schema,
		log:    log,
	}
}

// Schema returns the conventions the engine erases by
func (e *Engine) Schema() Schema {
	return e.schema
}

// Purge removes every row referencing accountID and then the account row.
// The plan is rebuilt from the live schema on every call. Either everything
// is committed or nothing is; the report is returned in both cases.
func (e *Engine) Purge(ctx context.Context, accountID string) (*Report, error) {
	start := time.Now()
	log := e.log.WithAccountID(accountID)
	dialect := e.store.Dialect()

	report := &Report{
		AccountID: accountID,
		Stage:     StageIdle,
		Steps:     []StepResult{},
	}
	defer func() {
		report.Duration = time.Since(start)
	}()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return e.fail(log, report, &Error{Stage: StageIdle, Err: fmt.Errorf("begin transaction: %w", err)})
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Caller cancellation must not leave the connection checked out
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Warn("rollback failed", "error", rbErr)
		}
	}()

	report.advance(StageIntrospecting)
	discovery, err := NewIntrospector(dialect, e.schema).Discover(ctx, tx)
	if err != nil {
		return e.fail(log, report, e.classify(StageIntrospecting, "", err))
	}

	report.advance(StagePlanning)
	plan := BuildPlan(e.schema, discovery)
	log.Debug("erasure plan built",
		"dialect", dialect.Name(),
		"steps", len(plan.Steps),
		"tables", plan.Tables(),
		"self_refs", len(plan.Root.SelfRefs),
	)

	report.advance(StageDeleting)
	for _, step := range plan.Steps {
		query, args := deleteStatement(dialect, step, accountID)

		n, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return e.fail(log, report, e.classify(StageDeleting, step.Table, err))
		}

		report.Steps = append(report.Steps, StepResult{
			Table:   step.Table,
			Columns: step.Columns,
			Role:    step.Role,
			Rows:    n,
		})
		log.Debug("erasure step done", "table", step.Table, "role", step.Role, "rows", n)
	}

	report.advance(StageFinalizing)
	f := &finalizer{dialect: dialect, root: plan.Root}

	report.Cleared, err = f.clearSelfRefs(ctx, tx, accountID)
	if err != nil {
		return e.fail(log, report, e.classify(StageFinalizing, plan.Root.Table, err))
	}

	report.RootRows, err = f.deleteRoot(ctx, tx, accountID)
	if err != nil {
		return e.fail(log, report, e.classify(StageFinalizing, plan.Root.Table, err))
	}

	if err := tx.Commit(ctx); err != nil {
		return e.fail(log, report, e.classify(StageFinalizing, "", fmt.Errorf("commit: %w", err)))
	}
	committed = true
	report.advance(StageCommitted)

	log.Info("account erased",
		"tables", len(report.Steps),
		"dependent_rows", report.DependentRows(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return report, nil
}

// classify wraps a failure with its stage, marking errors caused by an
// earlier statement having already aborted the transaction
func (e *Engine) classify(stage Stage, table string, err error) *Error {
	if e.store.Dialect().Aborted(err) {
		err = fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	}
	return &Error{Stage: stage, Table: table, Err: err}
}

func (e *Engine) fail(log *logger.Logger, report *Report, err *Error) (*Report, error) {
	report.abort(err)

	if errors.Is(err, ErrAccountMissing) {
		log.Warn("account erasure aborted",
			"failed_stage", report.FailedStage,
			"error", err,
		)
	} else {
		log.Error("account erasure aborted",
			"failed_stage", report.FailedStage,
			"table", err.Table,
			"error", err,
		)
	}

	return report, err
}
