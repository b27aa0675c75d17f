package erasure

import (
	"context"
	"fmt"
	"slices"
)

// Discovery is what the introspector found in the live schema
type Discovery struct {
	// Owned lists tables carrying the ownership column, root excluded
	Owned []string

	// Referencing lists foreign keys from other tables to the root key
	Referencing []ForeignKey

	// SelfRefs lists foreign keys the root table declares on itself
	SelfRefs []ForeignKey

	// Touch is true when the root table has the last-modified column
	Touch bool
}

// Introspector reads schema metadata; it never mutates anything
type Introspector struct {
	dialect Dialect
	schema  Schema
}

// NewIntrospector creates an introspector for one dialect and schema
func NewIntrospector(dialect Dialect, schema Schema) *Introspector {
	return &Introspector{
		dialect: dialect,
		schema:  schema,
	}
}

// Discover returns both candidate sets. Any catalog error is returned as is:
// a partial table list would mean a partial erasure.
func (i *Introspector) Discover(ctx context.Context, q Queryer) (*Discovery, error) {
	owned, err := i.dialect.TablesWithColumn(ctx, q, i.schema.OwnerColumn)
	if err != nil {
		return nil, fmt.Errorf("list tables with column %s: %w", i.schema.OwnerColumn, err)
	}

	keys, err := i.dialect.ForeignKeysTo(ctx, q, i.schema.RootTable, i.schema.RootKey)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys to %s(%s): %w", i.schema.RootTable, i.schema.RootKey, err)
	}

	d := &Discovery{
		Owned:       make([]string, 0, len(owned)),
		Referencing: make([]ForeignKey, 0, len(keys)),
	}

	for _, table := range owned {
		if table == i.schema.RootTable || slices.Contains(d.Owned, table) {
			continue
		}
		d.Owned = append(d.Owned, table)
	}

	for _, fk := range keys {
		if fk.Table == i.schema.RootTable {
			d.SelfRefs = append(d.SelfRefs, fk)
			continue
		}
		d.Referencing = append(d.Referencing, fk)
	}

	if len(d.SelfRefs) > 0 && i.schema.TouchColumn != "" {
		touched, err := i.dialect.TablesWithColumn(ctx, q, i.schema.TouchColumn)
		if err != nil {
			return nil, fmt.Errorf("list tables with column %s: %w", i.schema.TouchColumn, err)
		}
		d.Touch = slices.Contains(touched, i.schema.RootTable)
	}

	return d, nil
}
