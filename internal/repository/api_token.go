package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taka-billing/internal/domain"
)

type APITokenRepository struct {
	q Querier
}

func NewAPITokenRepository(q Querier) *APITokenRepository {
	return &APITokenRepository{q: q}
}

// FindByPlainToken resolves a bearer token presented by a client. Tokens are
// stored as sha256 hex digests; expired tokens never match.
func (r *APITokenRepository) FindByPlainToken(ctx context.Context, plainToken string) (*domain.APIToken, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	sum := sha256.Sum256([]byte(plainToken))
	hash := fmt.Sprintf("%x", sum)

	query := `SELECT id, token, user_id, name, expires_at
		FROM api_tokens
		WHERE token = $1
		  AND (expires_at IS NULL OR expires_at > $2)`

	var t domain.APIToken
	var expiresAt sql.NullTime
	err := r.q.QueryRowContext(ctx, query, hash, time.Now()).Scan(
		&t.ID,
		&t.TokenHash,
		&t.UserID,
		&t.Name,
		&expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("token not found")
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t.ExpiresAt = &expiresAt.Time
	}
	return &t, nil
}
