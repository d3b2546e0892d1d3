package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vixs101/Framez/internal/apperr"
	"github.com/Vixs101/Framez/internal/remote"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = 7 * 24 * time.Hour

const uniqueViolation = "23505"

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

var (
	hashPasswordFn    = bcrypt.GenerateFromPassword
	signTokenFn       = (*Backend).signToken
	parseWithClaimsFn = jwt.ParseWithClaims
)

func (b *Backend) Authenticate(ctx context.Context, email, password string) (remote.AuthSession, error) {
	if err := b.ready(); err != nil {
		return remote.AuthSession{}, err
	}

	var userID, hash string
	row := b.db.QueryRow(ctx, `SELECT id, password_hash FROM users WHERE email = $1`, email)
	if err := row.Scan(&userID, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return remote.AuthSession{}, invalidCredentials()
		}
		return remote.AuthSession{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return remote.AuthSession{}, invalidCredentials()
	}

	return b.openSession(ctx, userID)
}

func (b *Backend) Register(ctx context.Context, email, password, fullName string) (remote.AuthSession, error) {
	if err := b.ready(); err != nil {
		return remote.AuthSession{}, err
	}
	hash, err := hashPasswordFn([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return remote.AuthSession{}, err
	}

	userID := uuid.NewString()
	_, err = b.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, full_name)
		VALUES ($1,$2,$3,$4)
	`, userID, email, string(hash), fullName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return remote.AuthSession{}, &apperr.AuthError{Message: "User already registered", Err: err}
		}
		return remote.AuthSession{}, fmt.Errorf("insert user: %w", err)
	}

	// registration never opens a session, the caller signs in next
	return remote.AuthSession{UserID: userID}, nil
}

// RevokeSession is idempotent: unknown or already revoked tokens succeed.
func (b *Backend) RevokeSession(ctx context.Context, accessToken string) error {
	if err := b.ready(); err != nil {
		return err
	}
	_, err := b.db.Exec(ctx, `
		UPDATE auth_sessions SET revoked_at = now()
		WHERE token = $1 AND revoked_at IS NULL
	`, accessToken)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (b *Backend) VerifySession(ctx context.Context, accessToken string) (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	claims, err := b.parseToken(accessToken)
	if err != nil {
		return "", &apperr.AuthError{Message: "Session expired", Err: err}
	}

	var userID string
	var expiresAt time.Time
	row := b.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM auth_sessions
		WHERE token = $1 AND revoked_at IS NULL
	`, accessToken)
	if err := row.Scan(&userID, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &apperr.AuthError{Message: "Session expired"}
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	if userID != claims.UserID || time.Now().After(expiresAt) {
		return "", &apperr.AuthError{Message: "Session expired"}
	}
	return userID, nil
}

func (b *Backend) openSession(ctx context.Context, userID string) (remote.AuthSession, error) {
	token, err := signTokenFn(b, userID, sessionTTL)
	if err != nil {
		return remote.AuthSession{}, err
	}
	expiresAt := time.Now().Add(sessionTTL)
	_, err = b.db.Exec(ctx, `
		INSERT INTO auth_sessions (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, expiresAt)
	if err != nil {
		return remote.AuthSession{}, fmt.Errorf("save session: %w", err)
	}
	return remote.AuthSession{UserID: userID, AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (b *Backend) signToken(userID string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(b.secret)
}

func (b *Backend) parseToken(token string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return b.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func invalidCredentials() error {
	return &apperr.AuthError{Message: "Invalid login credentials"}
}
