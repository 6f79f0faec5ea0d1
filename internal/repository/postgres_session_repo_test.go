package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/bie/internal/model"
)

func newSessionFixture() *model.Session {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.Session{
		ID:             "sess-1",
		UserID:         "user-1",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: now.Add(time.Hour),
		ExpiresAt:      now.Add(7 * 24 * time.Hour),
		CreatedAt:      now,
	}
}

var sessionColumns = []string{"id", "user_id", "access_token", "refresh_token", "token_expires_at", "expires_at", "created_at"}

func TestPostgresSessionRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	s := newSessionFixture()
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.TokenExpiresAt, s.ExpiresAt, s.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSessionRepo_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	s := newSessionFixture()
	rows := sqlmock.NewRows(sessionColumns).
		AddRow(s.ID, s.UserID, s.AccessToken, s.RefreshToken, s.TokenExpiresAt, s.ExpiresAt, s.CreatedAt)
	mock.ExpectQuery("SELECT .* FROM sessions").WithArgs("sess-1").WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.RefreshToken != "refresh-1" || got.UserID != "user-1" {
		t.Errorf("session = %+v", got)
	}
	if !got.TokenExpiresAt.Equal(s.TokenExpiresAt) {
		t.Errorf("TokenExpiresAt = %v, want %v", got.TokenExpiresAt, s.TokenExpiresAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// 期限切れまたは存在しないセッションはnilを返す
func TestPostgresSessionRepo_FindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectQuery("SELECT .* FROM sessions").WithArgs("gone").
		WillReturnRows(sqlmock.NewRows(sessionColumns))

	got, err := repo.FindByID(context.Background(), "gone")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestPostgresSessionRepo_FindByID_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectQuery("SELECT .* FROM sessions").WithArgs("x").WillReturnError(errors.New("connection reset"))

	if _, err := repo.FindByID(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestPostgresSessionRepo_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	s := newSessionFixture()
	s.AccessToken = "access-2"
	s.RefreshToken = "refresh-2"
	mock.ExpectExec("UPDATE sessions").
		WithArgs(s.ID, "access-2", "refresh-2", s.TokenExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), s); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSessionRepo_Update_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectExec("UPDATE sessions").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), newSessionFixture())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestPostgresSessionRepo_DeleteByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectExec("DELETE FROM sessions WHERE user_id").WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteByUserID(context.Background(), "user-1"); err != nil {
		t.Fatalf("DeleteByUserID returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSessionRepo_DeleteExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresSessionRepo(db)

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at").WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if n != 4 {
		t.Errorf("deleted = %d, want 4", n)
	}
}
