package erasure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan_EmptyDiscoveryOnlyFinalizesRoot(t *testing.T) {
	plan := BuildPlan(DefaultSchema(), &Discovery{})

	assert.Empty(t, plan.Steps)
	assert.Equal(t, "users", plan.Root.Table)
	assert.Equal(t, "id", plan.Root.Key)
	assert.Empty(t, plan.Root.SelfRefs)
}

func TestBuildPlan_OwnerColumnAlsoDeclaredAsForeignKeyStaysOwner(t *testing.T) {
	plan := BuildPlan(DefaultSchema(), &Discovery{
		Owned: []string{"orders"},
		Referencing: []ForeignKey{
			{Table: "orders", Column: "user_id"},
		},
	})

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, Relation{Table: "orders", Columns: []string{"user_id"}, Role: RoleOwner}, plan.Steps[0])
}

func TestBuildPlan_ExtraForeignKeyFoldsIntoOwnerStep(t *testing.T) {
	plan := BuildPlan(DefaultSchema(), &Discovery{
		Owned: []string{"orders"},
		Referencing: []ForeignKey{
			{Table: "orders", Column: "user_id"},
			{Table: "orders", Column: "approved_by"},
		},
	})

	require.Len(t, plan.Steps, 1, "one step per table")
	assert.Equal(t, Relation{
		Table:   "orders",
		Columns: []string{"user_id", "approved_by"},
		Role:    RoleDual,
	}, plan.Steps[0])
}

func TestBuildPlan_TwoForeignKeysOnOneTableMergeIntoDualStep(t *testing.T) {
	plan := BuildPlan(DefaultSchema(), &Discovery{
		Referencing: []ForeignKey{
			{Table: "organization_members", Column: "invited_by"},
			{Table: "organization_members", Column: "member"},
		},
	})

	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, RoleDual, step.Role)
	assert.Equal(t, []string{"invited_by", "member"}, step.Columns)
}

func TestBuildPlan_StableOrderWithoutDuplicates(t *testing.T) {
	plan := BuildPlan(DefaultSchema(), &Discovery{
		Owned: []string{"orders", "sessions", "orders"},
		Referencing: []ForeignKey{
			{Table: "invites", Column: "user_ref"},
			{Table: "sessions", Column: "user_id"},
			{Table: "audit_log", Column: "actor"},
			{Table: "invites", Column: "user_ref"},
		},
	})

	assert.Equal(t, []string{"orders", "sessions", "invites", "audit_log"}, plan.Tables())
	assert.Equal(t, RoleForeignKey, plan.Steps[2].Role)
	assert.Equal(t, []string{"user_ref"}, plan.Steps[2].Columns)
}

func TestBuildPlan_OnlyNullableSelfReferencesAreCleared(t *testing.T) {
	plan := BuildPlan(DefaultSchema(), &Discovery{
		SelfRefs: []ForeignKey{
			{Table: "users", Column: "referred_by", Nullable: true},
			{Table: "users", Column: "created_by", Nullable: false},
		},
		Touch: true,
	})

	require.Len(t, plan.Root.SelfRefs, 1)
	assert.Equal(t, "referred_by", plan.Root.SelfRefs[0].Column)
	assert.Equal(t, "updated_at", plan.Root.Touch)
}

func TestDeleteStatement_DualRoleUsesOnePredicatePerColumn(t *testing.T) {
	d := &fakeDialect{}
	query, args := deleteStatement(d, Relation{
		Table:   "organization_members",
		Columns: []string{"member", "invited_by"},
		Role:    RoleDual,
	}, "u-1")

	assert.Equal(t, `DELETE FROM "organization_members" WHERE "member" = $1 OR "invited_by" = $2`, query)
	assert.Equal(t, []any{"u-1", "u-1"}, args)
}
