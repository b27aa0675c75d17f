package erasure

import (
	"fmt"
	"slices"
	"strings"
)

// Role says how a table references the account
type Role string

const (
	// RoleOwner matches rows through the platform ownership column
	RoleOwner Role = "owner"

	// RoleForeignKey matches rows through one declared foreign key column
	RoleForeignKey Role = "foreign_key"

	// RoleDual matches rows where any of several columns, ownership or
	// foreign key, references the account
	RoleDual Role = "dual"
)

// Relation is one delete step: rows of Table where any of Columns equals the account id
type Relation struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Role    Role     `json:"role"`
}

// RootStep is the finalization of the account row itself
type RootStep struct {
	Table    string       `json:"table"`
	Key      string       `json:"key"`
	SelfRefs []ForeignKey `json:"self_refs,omitempty"`
	Touch    string       `json:"touch,omitempty"`
}

// Plan is an ordered, duplicate-free list of steps followed by the root step.
// Step order carries no dependency meaning: every table is one hop from root.
type Plan struct {
	Steps []Relation `json:"steps"`
	Root  RootStep   `json:"root"`
}

// BuildPlan merges both discovery sets into one plan.
//
// Every table gets exactly one step. A table found through the ownership
// column starts with that column; any other foreign key column it declares
// to the root is folded into the same step. A table referencing the account
// through several columns gets one step matching any of them.
func BuildPlan(schema Schema, d *Discovery) *Plan {
	plan := &Plan{
		Steps: make([]Relation, 0, len(d.Owned)+len(d.Referencing)),
		Root: RootStep{
			Table: schema.RootTable,
			Key:   schema.RootKey,
		},
	}

	seen := make(map[string]int)

	for _, table := range d.Owned {
		if _, ok := seen[table]; ok {
			continue
		}
		seen[table] = len(plan.Steps)
		plan.Steps = append(plan.Steps, Relation{
			Table:   table,
			Columns: []string{schema.OwnerColumn},
			Role:    RoleOwner,
		})
	}

	for _, fk := range d.Referencing {
		idx, ok := seen[fk.Table]
		if !ok {
			seen[fk.Table] = len(plan.Steps)
			plan.Steps = append(plan.Steps, Relation{
				Table:   fk.Table,
				Columns: []string{fk.Column},
				Role:    RoleForeignKey,
			})
			continue
		}

		step := &plan.Steps[idx]
		if slices.Contains(step.Columns, fk.Column) {
			continue
		}
		step.Columns = append(step.Columns, fk.Column)
		step.Role = RoleDual
	}

	for _, fk := range d.SelfRefs {
		if fk.Nullable {
			plan.Root.SelfRefs = append(plan.Root.SelfRefs, fk)
		}
	}
	if d.Touch {
		plan.Root.Touch = schema.TouchColumn
	}

	return plan
}

// Tables returns the step tables in execution order
func (p *Plan) Tables() []string {
	tables := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		tables[i] = s.Table
	}
	return tables
}

// deleteStatement renders the step as a DELETE with one bind argument per
// column, so no backend has to support reusing a numbered parameter.
func deleteStatement(d Dialect, r Relation, accountID string) (string, []any) {
	preds := make([]string, len(r.Columns))
	args := make([]any, len(r.Columns))
	for i, col := range r.Columns {
		preds[i] = fmt.Sprintf("%s = %s", d.Quote(col), d.Placeholder(i+1))
		args[i] = accountID
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", d.Quote(r.Table), strings.Join(preds, " OR "))
	return query, args
}
