package erasure

import "context"

// Rows is the cursor surface shared by pgx.Rows and the database/sql adapter
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Queryer runs statements on either a pool or an open transaction
type Queryer interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Tx is one open transaction on one checked-out connection.
// Commit and Rollback both return the connection to its pool.
type Tx interface {
	Queryer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is a relational backend the engine can erase accounts from
type Store interface {
	Queryer
	Begin(ctx context.Context) (Tx, error)
	Dialect() Dialect
	Health(ctx context.Context) error
}

// ForeignKey is a single-column foreign key pointing at the root table's key
type ForeignKey struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	Nullable bool   `json:"nullable"`
}

// Dialect hides the SQL differences between backends: parameter syntax,
// identifier quoting, catalog queries and failure classification.
type Dialect interface {
	Name() string

	// Placeholder returns the bind marker for the n-th argument (1-based)
	Placeholder(n int) string

	// Quote returns name as a safely quoted identifier
	Quote(name string) string

	// TablesWithColumn lists base tables that carry a column with the given name
	TablesWithColumn(ctx context.Context, q Queryer, column string) ([]string, error)

	// ForeignKeysTo lists single-column foreign keys referencing table(column)
	ForeignKeysTo(ctx context.Context, q Queryer, table, column string) ([]ForeignKey, error)

	// Aborted reports whether err means the transaction already failed and
	// rejects every further statement until rollback
	Aborted(err error) bool
}
