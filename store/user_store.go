package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"vendorpulse/api/models"
)

type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore instance.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts a new user into the database.
func (s *UserStore) CreateUser(ctx context.Context, email, name, role string, hashedPassword []byte) (*models.User, error) {
	user := &models.User{}
	query := `
		INSERT INTO users (email, name, role, hashed_password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, role, created_at, updated_at;
	`
	err := s.db.QueryRowContext(ctx, query, email, name, role, hashedPassword).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err.Error() == `pq: duplicate key value violates unique constraint "idx_users_email"` ||
			err.Error() == `pq: duplicate key value violates unique constraint "users_email_key"` {
			return nil, fmt.Errorf("user with email '%s' already exists", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("User created in DB: ID=%d, Email=%s, Role=%s", user.ID, user.Email, user.Role)
	return user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, name, role, hashed_password, created_at, updated_at
		FROM users
		WHERE email = $1;
	`
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with email '%s' not found", email)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// ListVendors returns every vendor account, ordered by ID. The aggregation
// job iterates this set.
func (s *UserStore) ListVendors(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, email, name, role, created_at, updated_at
		FROM users
		WHERE role = 'vendor'
		ORDER BY id ASC;
	`
	var vendors []models.User
	err := withRetry(ctx, "list vendors", func() error {
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		vendors = vendors[:0]
		for rows.Next() {
			var u models.User
			if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
				log.Printf("Error scanning vendor row: %v", err)
				continue
			}
			vendors = append(vendors, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return vendors, nil
}
