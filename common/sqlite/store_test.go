package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lyzr/accounts/common/erasure"
	"github.com/lyzr/accounts/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userOne   = "0c6c2f0e-1a57-4e55-9a3e-5d1f6b1e0001"
	userTwo   = "0c6c2f0e-1a57-4e55-9a3e-5d1f6b1e0002"
	userThree = "0c6c2f0e-1a57-4e55-9a3e-5d1f6b1e0003"
)

const testSchema = `
CREATE TABLE users (
	id          TEXT PRIMARY KEY,
	email       TEXT NOT NULL UNIQUE COLLATE NOCASE,
	name        TEXT,
	referred_by TEXT REFERENCES users(id),
	updated_at  TIMESTAMP
);

CREATE TABLE orders (
	id      INTEGER PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	total   INTEGER NOT NULL
);

CREATE TABLE invites (
	id            INTEGER PRIMARY KEY,
	invitee_email TEXT NOT NULL,
	sent_by       TEXT NOT NULL REFERENCES users
);

CREATE TABLE organizations (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE organization_members (
	id         INTEGER PRIMARY KEY,
	org_id     INTEGER NOT NULL REFERENCES organizations(id),
	member     TEXT REFERENCES users(id),
	invited_by TEXT REFERENCES users(id)
);
`

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "accounts.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Exec(context.Background(), testSchema)
	require.NoError(t, err)

	return store
}

func mustExec(t *testing.T, s *Store, query string, args ...any) {
	t.Helper()
	_, err := s.Exec(context.Background(), query, args...)
	require.NoError(t, err)
}

func count(t *testing.T, s *Store, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow(query, args...).Scan(&n))
	return n
}

// seedScenario gives userOne 3 orders, 2 invites and one membership row where
// they are both member and inviter; userTwo gets unrelated rows that must survive.
func seedScenario(t *testing.T, s *Store) {
	t.Helper()

	mustExec(t, s, `INSERT INTO users (id, email, name) VALUES (?, ?, ?), (?, ?, ?)`,
		userOne, "Ada@Example.com", "Ada",
		userTwo, "grace@example.com", "Grace",
	)
	mustExec(t, s, `INSERT INTO orders (user_id, total) VALUES (?, 10), (?, 20), (?, 30), (?, 40)`,
		userOne, userOne, userOne, userTwo)
	mustExec(t, s, `INSERT INTO invites (invitee_email, sent_by) VALUES ('a@x.io', ?), ('b@x.io', ?), ('c@x.io', ?)`,
		userOne, userOne, userTwo)
	mustExec(t, s, `INSERT INTO organizations (id, name) VALUES (1, 'acme')`)
	mustExec(t, s, `INSERT INTO organization_members (org_id, member, invited_by) VALUES (1, ?, ?), (1, ?, ?)`,
		userOne, userOne, userTwo, userTwo)
}

func totalRows(t *testing.T, s *Store) map[string]int {
	t.Helper()
	tables := []string{"users", "orders", "invites", "organizations", "organization_members"}
	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		counts[table] = count(t, s, `SELECT COUNT(*) FROM `+table)
	}
	return counts
}

func newEngine(s *Store) *erasure.Engine {
	return erasure.NewEngine(s, erasure.DefaultSchema(), logger.Discard())
}

func TestDialect_TablesWithColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tables, err := Dialect{}.TablesWithColumn(ctx, s, "user_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, tables)

	// A table added later is picked up without any code change
	mustExec(t, s, `CREATE TABLE api_tokens (token TEXT PRIMARY KEY, user_id TEXT NOT NULL)`)

	tables, err = Dialect{}.TablesWithColumn(ctx, s, "user_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"api_tokens", "orders"}, tables)
}

func TestDialect_ForeignKeysTo(t *testing.T) {
	s := newTestStore(t)

	keys, err := Dialect{}.ForeignKeysTo(context.Background(), s, "users", "id")
	require.NoError(t, err)

	assert.Equal(t, []erasure.ForeignKey{
		{Table: "invites", Column: "sent_by", Nullable: false},
		{Table: "orders", Column: "user_id", Nullable: false},
		{Table: "organization_members", Column: "invited_by", Nullable: true},
		{Table: "organization_members", Column: "member", Nullable: true},
		{Table: "users", Column: "referred_by", Nullable: true},
	}, keys)
}

func TestPurge_RemovesEveryDependentRowAndRoot(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)
	before := totalRows(t, s)

	report, err := newEngine(s).Purge(context.Background(), userOne)
	require.NoError(t, err)

	assert.Equal(t, erasure.StageCommitted, report.Stage)
	assert.Equal(t, int64(6), report.DependentRows())
	assert.Equal(t, int64(1), report.RootRows)

	assert.Zero(t, count(t, s, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userOne))
	assert.Zero(t, count(t, s, `SELECT COUNT(*) FROM invites WHERE sent_by = ?`, userOne))
	assert.Zero(t, count(t, s, `SELECT COUNT(*) FROM organization_members WHERE member = ? OR invited_by = ?`, userOne, userOne))
	assert.Zero(t, count(t, s, `SELECT COUNT(*) FROM users WHERE id = ?`, userOne))

	after := totalRows(t, s)
	assert.Equal(t, before["orders"]-3, after["orders"])
	assert.Equal(t, before["invites"]-2, after["invites"])
	assert.Equal(t, before["organization_members"]-1, after["organization_members"])
	assert.Equal(t, before["users"]-1, after["users"])
	assert.Equal(t, before["organizations"], after["organizations"])
}

func TestPurge_AccountWithoutDependents(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)
	mustExec(t, s, `INSERT INTO users (id, email) VALUES (?, 'lone@example.com')`, userThree)
	before := totalRows(t, s)

	report, err := newEngine(s).Purge(context.Background(), userThree)
	require.NoError(t, err)

	assert.Zero(t, report.DependentRows())
	assert.Equal(t, int64(1), report.RootRows)

	after := totalRows(t, s)
	before["users"]--
	assert.Equal(t, before, after)
}

func TestPurge_SecondCallFailsWithoutChangingAnything(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)
	engine := newEngine(s)

	_, err := engine.Purge(context.Background(), userOne)
	require.NoError(t, err)
	afterFirst := totalRows(t, s)

	report, err := engine.Purge(context.Background(), userOne)
	require.Error(t, err)
	assert.ErrorIs(t, err, erasure.ErrAccountMissing)
	assert.Equal(t, erasure.StageFinalizing, report.FailedStage)

	assert.Equal(t, afterFirst, totalRows(t, s))
}

func TestPurge_DualRoleTableCleanedInOneStep(t *testing.T) {
	s := newTestStore(t)
	mustExec(t, s, `INSERT INTO users (id, email) VALUES (?, 'one@x.io'), (?, 'two@x.io'), (?, 'three@x.io')`,
		userOne, userTwo, userThree)
	mustExec(t, s, `INSERT INTO organizations (id, name) VALUES (1, 'acme')`)
	mustExec(t, s, `INSERT INTO organization_members (org_id, member, invited_by) VALUES
		(1, ?, ?), (1, ?, ?), (1, ?, ?), (1, ?, ?)`,
		userOne, userTwo,
		userTwo, userOne,
		userOne, userOne,
		userTwo, userThree,
	)

	report, err := newEngine(s).Purge(context.Background(), userOne)
	require.NoError(t, err)

	var dual []erasure.StepResult
	for _, step := range report.Steps {
		if step.Table == "organization_members" {
			dual = append(dual, step)
		}
	}
	require.Len(t, dual, 1, "one merged step per table")
	assert.Equal(t, erasure.RoleDual, dual[0].Role)
	assert.Equal(t, int64(3), dual[0].Rows)

	assert.Zero(t, count(t, s, `SELECT COUNT(*) FROM organization_members WHERE member = ? OR invited_by = ?`, userOne, userOne))
	assert.Equal(t, 1, count(t, s, `SELECT COUNT(*) FROM organization_members`))
}

func TestPurge_OwnedTableWithExtraForeignKey(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)
	mustExec(t, s, `
		CREATE TABLE team_members (
			id         INTEGER PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			invited_by TEXT REFERENCES users(id)
		)
	`)
	mustExec(t, s, `INSERT INTO team_members (user_id, invited_by) VALUES (?, ?), (?, ?), (?, NULL)`,
		userTwo, userOne,
		userOne, userTwo,
		userTwo,
	)

	report, err := newEngine(s).Purge(context.Background(), userOne)
	require.NoError(t, err)

	var team []erasure.StepResult
	for _, step := range report.Steps {
		if step.Table == "team_members" {
			team = append(team, step)
		}
	}
	require.Len(t, team, 1, "one merged step per table")
	assert.Equal(t, erasure.RoleDual, team[0].Role)
	assert.Equal(t, []string{"user_id", "invited_by"}, team[0].Columns)
	assert.Equal(t, int64(2), team[0].Rows)

	assert.Zero(t, count(t, s, `SELECT COUNT(*) FROM team_members WHERE user_id = ? OR invited_by = ?`, userOne, userOne))
	assert.Equal(t, 1, count(t, s, `SELECT COUNT(*) FROM team_members`))
	assert.Zero(t, count(t, s, `SELECT COUNT(*) FROM users WHERE id = ?`, userOne))
}

func TestPurge_MidPlanFailureRollsBackEarlierSteps(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)
	mustExec(t, s, `
		CREATE TRIGGER invites_locked BEFORE DELETE ON invites
		BEGIN
			SELECT RAISE(ABORT, 'invites are locked');
		END;
	`)
	before := totalRows(t, s)

	report, err := newEngine(s).Purge(context.Background(), userOne)
	require.Error(t, err)

	assert.ErrorIs(t, err, erasure.ErrDeletionFailed)
	assert.NotErrorIs(t, err, erasure.ErrTransactionAborted)
	assert.Equal(t, erasure.StageDeleting, report.FailedStage)
	require.NotEmpty(t, report.Steps)
	assert.Equal(t, "orders", report.Steps[0].Table, "orders ran before the failing step")

	assert.Equal(t, before, totalRows(t, s))
	assert.Equal(t, 3, count(t, s, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userOne))
}

func TestPurge_ClearsReferralsToTheAccount(t *testing.T) {
	s := newTestStore(t)
	seedScenario(t, s)
	mustExec(t, s, `UPDATE users SET referred_by = ? WHERE id = ?`, userOne, userTwo)

	report, err := newEngine(s).Purge(context.Background(), userOne)
	require.NoError(t, err)

	require.Len(t, report.Cleared, 1)
	assert.Equal(t, int64(1), report.Cleared[0].Rows)

	assert.Zero(t, count(t, s, `SELECT COUNT(*) FROM users WHERE referred_by IS NOT NULL`))
	assert.Equal(t, 1, count(t, s, `SELECT COUNT(*) FROM users WHERE id = ? AND updated_at IS NOT NULL`, userTwo))
}
