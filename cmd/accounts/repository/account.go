package repository

import (
	"context"
	"fmt"

	"github.com/lyzr/accounts/cmd/accounts/models"
	"github.com/lyzr/accounts/common/erasure"
)

// AccountRepository reads account rows from the root table. Column names
// come from the erasure schema, so the queries are built per dialect.
type AccountRepository struct {
	store  erasure.Store
	schema erasure.Schema
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(store erasure.Store, schema erasure.Schema) *AccountRepository {
	return &AccountRepository{
		store:  store,
		schema: schema,
	}
}

// GetByID retrieves an account by primary key
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	d := r.store.Dialect()
	query := r.selectAccount() + fmt.Sprintf(" WHERE %s = %s", d.Quote(r.schema.RootKey), d.Placeholder(1))

	account, err := r.queryOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email, ignoring case
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	d := r.store.Dialect()
	query := r.selectAccount() + fmt.Sprintf(" WHERE LOWER(%s) = LOWER(%s)", d.Quote(r.schema.EmailColumn), d.Placeholder(1))

	account, err := r.queryOne(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) selectAccount() string {
	d := r.store.Dialect()

	name := "''"
	if r.schema.NameColumn != "" {
		name = fmt.Sprintf("COALESCE(%s, '')", d.Quote(r.schema.NameColumn))
	}

	return fmt.Sprintf("SELECT CAST(%s AS TEXT), %s, %s FROM %s",
		d.Quote(r.schema.RootKey),
		d.Quote(r.schema.EmailColumn),
		name,
		d.Quote(r.schema.RootTable),
	)
}

func (r *AccountRepository) queryOne(ctx context.Context, query string, arg string) (*models.Account, error) {
	rows, err := r.store.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, erasure.ErrAccountNotFound
	}

	account := &models.Account{}
	if err := rows.Scan(&account.ID, &account.Email, &account.Name); err != nil {
		return nil, err
	}

	return account, nil
}
