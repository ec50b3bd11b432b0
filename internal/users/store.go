package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mkurnia/pos-orders/internal/errs"
	"github.com/mkurnia/pos-orders/internal/postgres"
)

// Store reads user rows. Writes (registration, verification) belong to the
// identity collaborator and are not part of this core.
type Store struct{}

func NewStore() Store { return Store{} }

func (Store) Get(ctx context.Context, q postgres.Querier, id string) (User, error) {
	var u User
	err := q.QueryRow(ctx, `
		SELECT id, name, email, role, is_active, created_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("user %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
