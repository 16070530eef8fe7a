package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/ventacrm/crm/internal/apperror"
)

// mysqlErrDuplicateEntry is the MariaDB error number for a unique key
// violation.
const mysqlErrDuplicateEntry = 1062

// Registry is the principal registry: the backing store of credential
// records. All SQL lives in the concrete implementation -- no SQL leaks out.
//
// Implementations must never reuse an identifier once assigned.
type Registry interface {
	FindByID(ctx context.Context, id int64) (*Credential, error)
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]Principal, error)
	Count(ctx context.Context) (int, error)

	// Create inserts cred and assigns cred.ID.
	Create(ctx context.Context, cred *Credential) error
	Delete(ctx context.Context, id int64) error
	UpdateLastLogin(ctx context.Context, id int64) error
}

// userRepository implements Registry with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a registry backed by the given DB pool.
func NewUserRepository(db *sql.DB) Registry {
	return &userRepository{db: db}
}

// Create inserts a new user row. The id comes from AUTO_INCREMENT, which
// MariaDB never hands out twice.
func (r *userRepository) Create(ctx context.Context, cred *Credential) error {
	query := `INSERT INTO users (email, display_name, password_hash, role, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		cred.Email,
		cred.Name,
		cred.SecretHash,
		string(cred.Role),
		cred.CreatedAt,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
			return apperror.NewConflict("an account with this email already exists")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted user id: %w", err)
	}
	cred.ID = id

	return nil
}

// FindByID retrieves a credential by id.
// Returns apperror.NotFound if no user exists with this id.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*Credential, error) {
	query := `SELECT id, email, display_name, password_hash, role, created_at, last_login_at
	          FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "querying user by id")
}

// FindByEmail retrieves a credential by its (already normalized) email.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*Credential, error) {
	query := `SELECT id, email, display_name, password_hash, role, created_at, last_login_at
	          FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email), "querying user by email")
}

func (r *userRepository) scanOne(row *sql.Row, op string) (*Credential, error) {
	cred := &Credential{}
	var role string
	err := row.Scan(
		&cred.ID,
		&cred.Email,
		&cred.Name,
		&cred.SecretHash,
		&role,
		&cred.CreatedAt,
		&cred.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cred.Role, err = ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cred, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used before hashing so a duplicate doesn't cost an argon2 round.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// List returns every principal ordered by id. password_hash is never
// selected.
func (r *userRepository) List(ctx context.Context) ([]Principal, error) {
	query := `SELECT id, email, display_name, role FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var principals []Principal
	for rows.Next() {
		var p Principal
		var role string
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &role); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		if p.Role, err = ParseRole(role); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		p.OwnerID = p.ID
		principals = append(principals, p)
	}

	return principals, rows.Err()
}

// Count returns the number of registry entries.
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// Delete removes a user row.
// Returns apperror.NotFound if no row matched.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// UpdateLastLogin sets the last_login_at timestamp to now for the given user.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}
