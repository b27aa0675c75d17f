package erasure

import (
	"context"
	"fmt"
)

// finalizer removes the account row once every dependent step is done
type finalizer struct {
	dialect Dialect
	root    RootStep
}

// clearSelfRefs nulls nullable self-referencing columns pointing at the
// account, on its own row or on other accounts, so the root delete is not
// blocked by them.
func (f *finalizer) clearSelfRefs(ctx context.Context, q Queryer, accountID string) ([]StepResult, error) {
	cleared := make([]StepResult, 0, len(f.root.SelfRefs))
	for _, fk := range f.root.SelfRefs {
		set := fmt.Sprintf("%s = NULL", f.dialect.Quote(fk.Column))
		if f.root.Touch != "" {
			set += fmt.Sprintf(", %s = CURRENT_TIMESTAMP", f.dialect.Quote(f.root.Touch))
		}

		query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
			f.dialect.Quote(f.root.Table), set, f.dialect.Quote(fk.Column), f.dialect.Placeholder(1))

		n, err := q.Exec(ctx, query, accountID)
		if err != nil {
			return cleared, fmt.Errorf("clear %s.%s: %w", f.root.Table, fk.Column, err)
		}
		cleared = append(cleared, StepResult{
			Table:   f.root.Table,
			Columns: []string{fk.Column},
			Role:    RoleForeignKey,
			Rows:    n,
		})
	}
	return cleared, nil
}

// deleteRoot deletes the account row and requires exactly one row gone
func (f *finalizer) deleteRoot(ctx context.Context, q Queryer, accountID string) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		f.dialect.Quote(f.root.Table), f.dialect.Quote(f.root.Key), f.dialect.Placeholder(1))

	n, err := q.Exec(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("delete %s row: %w", f.root.Table, err)
	}

	switch {
	case n == 0:
		return 0, ErrAccountMissing
	case n > 1:
		return n, fmt.Errorf("delete %s row: expected 1 row, removed %d", f.root.Table, n)
	}
	return n, nil
}
