package postgres

import (
	"context"
	"fmt"
	"time"
)

// CleanupResult filas borradas por tabla y criterio.
type CleanupResult struct {
	AuthTokensUsed       int64
	AuthTokensExpired    int64
	RefreshTokensRevoked int64
	RefreshTokensExpired int64
}

// TokenJanitor purga enlaces y sesiones que ya no sirven.
type TokenJanitor struct {
	db Querier
}

// NewTokenJanitor construye el limpiador.
func NewTokenJanitor(db Querier) *TokenJanitor {
	return &TokenJanitor{db: db}
}

// Purge borra enlaces usados hace más de 24 h, enlaces vencidos, sesiones revocadas
// hace más de 24 h y sesiones vencidas hace más de 3 días. Cada sentencia tiene su propio timeout.
func (j *TokenJanitor) Purge(ctx context.Context, now time.Time, stmtTimeout time.Duration) (CleanupResult, error) {
	var res CleanupResult
	steps := []struct {
		name  string
		query string
		arg   time.Time
		dst   *int64
	}{
		{"auth tokens usados", `DELETE FROM auth_tokens WHERE used_at IS NOT NULL AND used_at < $1`, now.Add(-24 * time.Hour), &res.AuthTokensUsed},
		{"auth tokens vencidos", `DELETE FROM auth_tokens WHERE used_at IS NULL AND expires_at < $1`, now.Add(-time.Hour), &res.AuthTokensExpired},
		{"refresh tokens revocados", `DELETE FROM refresh_tokens WHERE revoked AND created_at < $1`, now.Add(-24 * time.Hour), &res.RefreshTokensRevoked},
		{"refresh tokens vencidos", `DELETE FROM refresh_tokens WHERE expires_at < $1`, now.Add(-72 * time.Hour), &res.RefreshTokensExpired},
	}
	for _, s := range steps {
		n, err := j.exec(ctx, stmtTimeout, s.query, s.arg)
		if err != nil {
			return res, fmt.Errorf("%s: %w", s.name, err)
		}
		*s.dst = n
	}
	return res, nil
}

func (j *TokenJanitor) exec(ctx context.Context, timeout time.Duration, query string, arg time.Time) (int64, error) {
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd, err := j.db.Exec(c, query, arg)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
