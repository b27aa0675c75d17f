package erasure

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// errPoisoned stands in for a backend's "transaction is aborted" error
var errPoisoned = errors.New("current transaction is aborted")

type fakeDialect struct {
	owner       string
	owned       []string
	keys        []ForeignKey
	touched     []string
	ownedErr    error
	keysErr     error
	columnCalls []string
}

func (d *fakeDialect) Name() string { return "fake" }
func (d *fakeDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }
func (d *fakeDialect) Quote(name string) string { return `"` + name + `"` }
func (d *fakeDialect) Aborted(err error) bool { return errors.Is(err, errPoisoned) }

func (d *fakeDialect) TablesWithColumn(_ context.Context, _ Queryer, column string) ([]string, error) {
	d.columnCalls = append(d.columnCalls, column)
	if column == d.owner {
		return d.owned, d.ownedErr
	}
	return d.touched, nil
}

func (d *fakeDialect) ForeignKeysTo(_ context.Context, _ Queryer, _, _ string) ([]ForeignKey, error) {
	return d.keys, d.keysErr
}

type fakeTx struct {
	execs      []string
	args       [][]any
	results    map[string]int64 // keyed by statement prefix
	failOn     string
	failErr    error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, query string, args ...any) (int64, error) {
	t.execs = append(t.execs, query)
	t.args = append(t.args, args)
	if t.failOn != "" && strings.Contains(query, t.failOn) {
		return 0, t.failErr
	}
	for prefix, n := range t.results {
		if strings.HasPrefix(query, prefix) {
			return n, nil
		}
	}
	return 0, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (Rows, error) {
	return nil, errors.New("fakeTx: query not supported")
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeStore struct {
	dialect  *fakeDialect
	tx       *fakeTx
	beginErr error
	begins   int
}

func (s *fakeStore) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }

func (s *fakeStore) Query(context.Context, string, ...any) (Rows, error) {
	return nil, errors.New("fakeStore: query not supported")
}

func (s *fakeStore) Begin(context.Context) (Tx, error) {
	s.begins++
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.tx, nil
}

func (s *fakeStore) Dialect() Dialect { return s.dialect }
func (s *fakeStore) Health(context.Context) error { return nil }
