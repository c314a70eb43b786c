package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carissacho3/pet-adoption-backend/internal/domain"
	"github.com/carissacho3/pet-adoption-backend/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	profile_picture TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS user_bookmarks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	pet_id TEXT NOT NULL,
	UNIQUE (user_id, pet_id),
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_user_bookmarks_pet_id ON user_bookmarks(pet_id);
`

const selectUserColumns = `
SELECT id, username, email, password_hash, first_name, last_name, profile_picture, role, created_at, updated_at
FROM users`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Bookmarks = []string{}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, password_hash, first_name, last_name, profile_picture, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.ProfilePicture,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	id, err := parseID(user.ID)
	if err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET username=?, email=?, password_hash=?, first_name=?, last_name=?, profile_picture=?, role=?, updated_at=?
WHERE id=?`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.ProfilePicture,
		string(user.Role),
		user.UpdatedAt,
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res, "user update")
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, "user delete")
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, `
WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `
WHERE email = ?`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `
WHERE username = ?`, username)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+where, arg)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}

	bookmarks, err := listBookmarks(ctx, r.db, user.ID)
	if err != nil {
		return nil, err
	}
	user.Bookmarks = bookmarks
	return user, nil
}

func (r *UserRepository) AddBookmark(ctx context.Context, userID, petID string) ([]string, error) {
	userID, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	petID, err = parseID(petID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := userExists(ctx, tx, userID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO user_bookmarks (user_id, pet_id)
VALUES (?, ?)`,
		userID,
		petID,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("add bookmark: %w", repository.ErrDuplicate)
		}
		return nil, fmt.Errorf("add bookmark: %w", err)
	}

	bookmarks, err := listBookmarks(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add bookmark: %w", err)
	}
	return bookmarks, nil
}

func (r *UserRepository) RemoveBookmark(ctx context.Context, userID, petID string) ([]string, error) {
	userID, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := userExists(ctx, tx, userID); err != nil {
		return nil, err
	}

	// an id in the wrong format cannot be in the list, so nothing to delete
	if petID, err := parseID(petID); err == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_bookmarks WHERE user_id=? AND pet_id=?`, userID, petID); err != nil {
			return nil, fmt.Errorf("remove bookmark: %w", err)
		}
	}

	bookmarks, err := listBookmarks(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit remove bookmark: %w", err)
	}
	return bookmarks, nil
}

func (r *UserRepository) PurgeBookmark(ctx context.Context, petID string) error {
	petID, err := parseID(petID)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_bookmarks WHERE pet_id=?`, petID); err != nil {
		return fmt.Errorf("purge bookmark: %w", err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func userExists(ctx context.Context, q querier, id string) error {
	var found int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	return nil
}

func listBookmarks(ctx context.Context, q querier, userID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
SELECT pet_id
FROM user_bookmarks
WHERE user_id=?
ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []string{}
	for rows.Next() {
		var petID string
		if err := rows.Scan(&petID); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, petID)
	}
	return bookmarks, rows.Err()
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user      domain.User
		role      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.ProfilePicture,
		&role,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = domain.ParseRole(role)
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	return &user, nil
}
