package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

const userColumns = `id, name, email, age, mobile, interest, created_at, updated_at`

// UserRepo provides data access for the users table using sqlx. Queries are
// written with `?` placeholders and rebound for the connection's driver.
type UserRepo struct {
	db  *sqlx.DB
	ids utilities.IDScheme
	now func() time.Time
}

func NewUserRepo(db *sqlx.DB, ids utilities.IDScheme) *UserRepo {
	return &UserRepo{db: db, ids: ids, now: storeNow}
}

// storeNow is truncated to microseconds, the finest precision postgres keeps,
// so a returned record equals the one read back later.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ListAll returns every user in insertion order.
func (r *UserRepo) ListAll(ctx context.Context) ([]*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	users := []*entity.User{}
	if err := r.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		normalizeTimes(u)
	}
	return users, nil
}

// GetByID fetches a user row.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !r.ids.Valid(id) {
		return nil, ErrMalformedID
	}
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return r.getOne(ctx, q, id)
}

// FindByEmail returns the user holding email or ErrNotFound.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	q := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return r.getOne(ctx, q, email)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	normalizeTimes(&u)
	return &u, nil
}

// Insert assigns id and timestamps to u and stores it.
func (r *UserRepo) Insert(ctx context.Context, u *entity.User) (*entity.User, error) {
	now := r.now()
	row := *u
	row.ID = r.ids.New()
	row.CreatedAt = now
	row.UpdatedAt = now
	if row.Interest == nil {
		row.Interest = entity.Interests{}
	}
	q := `INSERT INTO users (` + userColumns + `)
		  VALUES (:id, :name, :email, :age, :mobile, :interest, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, &row); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &row, nil
}

// UpdateByID writes the fields present in p and refreshes updated_at.
func (r *UserRepo) UpdateByID(ctx context.Context, id string, p entity.Patch) (*entity.User, error) {
	if !r.ids.Valid(id) {
		return nil, ErrMalformedID
	}
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	if p.User != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.User)
	}
	if p.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *p.Email)
	}
	if p.Age != nil {
		sets = append(sets, "age = ?")
		args = append(args, int(*p.Age))
	}
	if p.Mobile != nil {
		sets = append(sets, "mobile = ?")
		args = append(args, int64(*p.Mobile))
	}
	if p.Interest != nil {
		sets = append(sets, "interest = ?")
		args = append(args, entity.Interests(*p.Interest))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.now(), id)

	q := r.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// DeleteByID removes the row. A missing row is ErrNotFound.
func (r *UserRepo) DeleteByID(ctx context.Context, id string) error {
	if !r.ids.Valid(id) {
		return ErrMalformedID
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeTimes(u *entity.User) {
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
}
