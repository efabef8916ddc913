package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bayanwatch/patrol-server/internal/models"
)

const tableOperators = "operators"

// ErrInvalidCredentials is returned for both unknown usernames and bad
// passwords; callers must not be able to tell which.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService authenticates operators and issues role-bearing tokens.
type AuthService struct {
	db       *pgxpool.Pool
	secret   string
	tokenTTL time.Duration
	logger   *zap.SugaredLogger
}

// NewAuthService creates an auth service signing tokens with secret.
func NewAuthService(db *pgxpool.Pool, secret string, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{db: db, secret: secret, tokenTTL: 24 * time.Hour, logger: logger}
}

// Login verifies credentials and returns a signed JWT whose claims
// carry the capability flags the rest of the system consumes.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.Operator, error) {
	op, err := s.findOperator(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          op.Username,
		"municipality": op.Municipality,
		"is_admin":     op.IsAdmin,
		"access_level": op.AccessLevel,
		"iat":          now.Unix(),
		"exp":          now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Infow("operator logged in", "username", op.Username, "municipality", op.Municipality)
	return signed, op, nil
}

// CreateOperator registers an account with a bcrypt-hashed password.
func (s *AuthService) CreateOperator(ctx context.Context, username, password, municipality string, isAdmin bool, accessLevel string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	sql, args, err := builder().
		Insert(tableOperators).
		Columns("username", "password_hash", "municipality", "is_admin", "access_level").
		Values(username, string(hash), municipality, isAdmin, accessLevel).
		ToSql()
	if err != nil {
		return fmt.Errorf("build operator insert: %w", err)
	}

	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("create operator %s: %w", username, err)
	}
	return nil
}

func (s *AuthService) findOperator(ctx context.Context, username string) (*models.Operator, error) {
	sql, args, err := builder().
		Select("id", "username", "password_hash", "municipality", "is_admin", "access_level").
		From(tableOperators).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build operator query: %w", err)
	}

	var op models.Operator
	err = s.db.QueryRow(ctx, sql, args...).
		Scan(&op.ID, &op.Username, &op.PasswordHash, &op.Municipality, &op.IsAdmin, &op.AccessLevel)
	if err != nil {
		return nil, err
	}
	return &op, nil
}
