package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// AuthRepository stores users and their access tokens. It implements
// auth.Backend.
type AuthRepository struct {
	db  *DB
	now func() time.Time
}

// NewAuthRepository creates a new AuthRepository
func NewAuthRepository(db *DB) *AuthRepository {
	return &AuthRepository{db: db, now: time.Now}
}

// SignUp registers a user and issues an access token.
func (r *AuthRepository) SignUp(ctx context.Context, email, password string) (*session.ProviderSession, error) {
	email = normalizeEmail(email)
	user := session.User{
		ID:       uuid.NewString(),
		Email:    email,
		Audience: session.AudienceAuthenticated,
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, aud, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, email, hash, user.Audience, formatTime(r.now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := r.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &session.ProviderSession{AccessToken: token, User: user}, nil
}

// SignIn checks the password and issues an access token.
func (r *AuthRepository) SignIn(ctx context.Context, email, password string) (*session.ProviderSession, error) {
	var (
		user      session.User
		stored    string
		avatarURL sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, aud, avatar_url, password_hash FROM users WHERE email = ?`,
		normalizeEmail(email),
	).Scan(&user.ID, &user.Email, &user.Audience, &avatarURL, &stored)
	if err == sql.ErrNoRows {
		return nil, repository.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, repository.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to check password: %w", err)
	}
	user.Metadata = avatarMetadata(avatarURL)

	token, err := r.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &session.ProviderSession{AccessToken: token, User: user}, nil
}

// SignOut revokes token. Revoking an unknown token is not an error.
func (r *AuthRepository) SignOut(ctx context.Context, accessToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE token_hash = ?`, hashToken(accessToken))
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// GetUser resolves an access token to its user.
func (r *AuthRepository) GetUser(ctx context.Context, accessToken string) (*session.User, error) {
	var (
		user      session.User
		avatarURL sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.aud, u.avatar_url
		FROM access_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = ?
	`, hashToken(accessToken)).Scan(&user.ID, &user.Email, &user.Audience, &avatarURL)
	if err == sql.ErrNoRows {
		return nil, repository.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	user.Metadata = avatarMetadata(avatarURL)
	return &user, nil
}

// SetAvatarURL records the avatar shown for a user.
func (r *AuthRepository) SetAvatarURL(ctx context.Context, userID, avatarURL string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_url = ? WHERE id = ?`, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to set avatar: %w", err)
	}
	return requireAffected(result)
}

func (r *AuthRepository) issueToken(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (token_hash, user_id, created_at) VALUES (?, ?, ?)`,
		hashToken(token), userID, formatTime(r.now()),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

func avatarMetadata(avatarURL sql.NullString) map[string]any {
	if !avatarURL.Valid || avatarURL.String == "" {
		return nil
	}
	return map[string]any{"avatar_url": avatarURL.String}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
