package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

var userColumns = []string{"id", "email", "display_name", "password_hash", "role", "created_at", "last_login_at"}

func newMockUserRepo(t *testing.T) (Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	created := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs("vendedor1@crm.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(2, "vendedor1@crm.com", "Juan Vendedor", "$argon2id$hash", "vendedor", created, nil))

	cred, err := repo.FindByEmail(context.Background(), "vendedor1@crm.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.ID != 2 || cred.Role != RoleVendedor || cred.LastLoginAt != nil {
		t.Errorf("unexpected credential: %+v", cred)
	}
	if p := cred.Principal(); p.OwnerID != 2 {
		t.Errorf("expected OwnerID 2, got %d", p.OwnerID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs("nobody@crm.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@crm.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_FindByID_UnknownRoleRejected(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "x@crm.com", "X", "h", "gerente", time.Now(), nil))

	if _, err := repo.FindByID(context.Background(), 7); err == nil {
		t.Fatal("expected error for role outside the enum")
	}
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	cred := &Credential{
		Email:      "luis@crm.com",
		Name:       "Luis",
		Role:       RoleVendedor,
		SecretHash: "$argon2id$hash",
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO users").
		WithArgs(cred.Email, cred.Name, cred.SecretHash, "vendedor", cred.CreatedAt).
		WillReturnResult(sqlmock.NewResult(17, 1))

	if err := repo.Create(context.Background(), cred); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.ID != 17 {
		t.Errorf("expected id 17, got %d", cred.ID)
	}
}

func TestUserRepository_Create_DuplicateIsConflict(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &Credential{Email: "admin", Role: RoleAdmin})
	assertAppError(t, err, 409)
}

func TestUserRepository_List(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	mock.ExpectQuery("SELECT id, email, display_name, role FROM users ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "role"}).
			AddRow(1, "admin", "Admin User", "admin").
			AddRow(3, "vendedor2@crm.com", "Ana Vendedora", "vendedor"))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Role != RoleAdmin || list[1].OwnerID != 3 {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	mock.ExpectExec("DELETE FROM users WHERE id = ?").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM users WHERE id = ?").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUserRepository_EmailExistsAndCount(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	exists, err := repo.EmailExists(context.Background(), "admin")
	if err != nil || !exists {
		t.Errorf("expected (true, nil), got (%v, %v)", exists, err)
	}
	n, err := repo.Count(context.Background())
	if err != nil || n != 3 {
		t.Errorf("expected (3, nil), got (%d, %v)", n, err)
	}
}
