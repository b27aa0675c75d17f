package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/lyzr/accounts/common/erasure"
)

// Dialect implements erasure.Dialect for SQLite using the pragma
// table-valued functions
type Dialect struct{}

var _ erasure.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Aborted is always false: a failed statement in SQLite does not poison
// the rest of the transaction
func (Dialect) Aborted(error) bool { return false }

func (Dialect) TablesWithColumn(ctx context.Context, q erasure.Queryer, column string) ([]string, error) {
	query := `
		SELECT m.name
		FROM sqlite_master m, pragma_table_info(m.name) c
		WHERE m.type = 'table'
		  AND m.name NOT LIKE 'sqlite_%'
		  AND c.name = ?
		ORDER BY m.name
	`

	rows, err := q.Query(ctx, query, column)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, table)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	return tables, nil
}

// ForeignKeysTo matches both REFERENCES t(col) and the bare REFERENCES t
// form, which points at the primary key and reports a NULL target column.
func (Dialect) ForeignKeysTo(ctx context.Context, q erasure.Queryer, table, column string) ([]erasure.ForeignKey, error) {
	query := `
		SELECT m.name, f."from", c."notnull"
		FROM sqlite_master m,
		     pragma_foreign_key_list(m.name) f,
		     pragma_table_info(m.name) c
		WHERE m.type = 'table'
		  AND m.name NOT LIKE 'sqlite_%'
		  AND f."table" = ?
		  AND (f."to" = ? OR f."to" IS NULL)
		  AND c.name = f."from"
		ORDER BY m.name, f."from"
	`

	rows, err := q.Query(ctx, query, table, column)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	keys := make([]erasure.ForeignKey, 0)
	for rows.Next() {
		var (
			fk      erasure.ForeignKey
			notNull int
		)
		if err := rows.Scan(&fk.Table, &fk.Column, &notNull); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fk.Nullable = notNull == 0
		keys = append(keys, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	return keys, nil
}
