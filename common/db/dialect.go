package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lyzr/accounts/common/erasure"
)

// SQLSTATE in_failed_sql_transaction: an earlier statement failed and the
// server rejects everything until ROLLBACK
const codeInFailedTransaction = "25P02"

// Dialect implements erasure.Dialect for PostgreSQL.
// Catalog lookups are limited to the connection's current schema.
type Dialect struct{}

var _ erasure.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (Dialect) Quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (Dialect) Aborted(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeInFailedTransaction
}

// TablesWithColumn lists base tables (views excluded) having the column
func (Dialect) TablesWithColumn(ctx context.Context, q erasure.Queryer, column string) ([]string, error) {
	query := `
		SELECT c.table_name::text
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = current_schema()
		  AND t.table_type = 'BASE TABLE'
		  AND c.column_name = $1
		ORDER BY c.table_name
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

// ForeignKeysTo lists single-column foreign keys to table(column) from
// pg_constraint. information_schema only shows tables the role owns.
func (Dialect) ForeignKeysTo(ctx context.Context, q erasure.Queryer, table, column string) ([]erasure.ForeignKey, error) {
	query := `
		SELECT src.relname::text, att.attname::text, NOT att.attnotnull
		FROM pg_constraint con
		JOIN pg_class src ON src.oid = con.conrelid
		JOIN pg_namespace src_ns ON src_ns.oid = src.relnamespace
		JOIN pg_class ref ON ref.oid = con.confrelid
		JOIN pg_namespace ref_ns ON ref_ns.oid = ref.relnamespace
		JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = con.conkey[1]
		JOIN pg_attribute ref_att ON ref_att.attrelid = con.confrelid AND ref_att.attnum = con.confkey[1]
		WHERE con.contype = 'f'
		  AND cardinality(con.conkey) = 1
		  AND src_ns.nspname = current_schema()
		  AND ref_ns.nspname = current_schema()
		  AND ref.relname = $1
		  AND ref_att.attname = $2
		ORDER BY src.relname, att.attname
	`

	rows, err := q.Query(ctx, query, table, column)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	keys := make([]erasure.ForeignKey, 0)
	for rows.Next() {
		var fk erasure.ForeignKey
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.Nullable); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		keys = append(keys, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}

	return keys, nil
}
