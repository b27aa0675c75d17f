package erasure

import "fmt"

// Schema names the account table and the platform-wide column conventions.
//
// Any table that carries OwnerColumn, or declares a foreign key to
// RootTable(RootKey), is erased together with the account. Schema authors
// adding a table that belongs to an account must follow one of the two.
type Schema struct {
	RootTable   string
	RootKey     string
	OwnerColumn string
	EmailColumn string
	NameColumn  string
	TouchColumn string
}

// DefaultSchema returns the conventions used by the platform database
func DefaultSchema() Schema {
	return Schema{
		RootTable:   "users",
		RootKey:     "id",
		OwnerColumn: "user_id",
		EmailColumn: "email",
		NameColumn:  "name",
		TouchColumn: "updated_at",
	}
}

// Validate checks that the required names are set
func (s Schema) Validate() error {
	if s.RootTable == "" {
		return fmt.Errorf("root table is required")
	}
	if s.RootKey == "" {
		return fmt.Errorf("root key is required")
	}
	if s.OwnerColumn == "" {
		return fmt.Errorf("owner column is required")
	}
	if s.EmailColumn == "" {
		return fmt.Errorf("email column is required")
	}
	return nil
}
