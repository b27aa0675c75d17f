package models

// Account is the identity of one account row as the erasure paths need it.
// Maps to: the configured root table (users by default)
type Account struct {
	// Primary key in its text form
	ID string `db:"id" json:"id"`

	// Unique, case-insensitive contact address
	Email string `db:"email" json:"email"`

	// Display name for the farewell message; empty when the schema has none
	Name string `db:"name" json:"name,omitempty"`
}

// PurgeByEmailRequest is the operator recovery request body
type PurgeByEmailRequest struct {
	Email string `json:"email"`
}
