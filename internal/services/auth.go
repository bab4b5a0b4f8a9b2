package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gradtrack/apiserver/internal/store"
	"github.com/gradtrack/apiserver/types"
)

const defaultTokenTTL = 24 * time.Hour

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// AuthService registers accounts, verifies logins, and issues and
// validates session tokens. Tokens are HS256 JWTs binding an account id
// to an expiry under the server secret.
type AuthService struct {
	repo     UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(repo UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		repo:     repo,
		secret:   []byte(jwtSecret),
		tokenTTL: defaultTokenTTL,
	}
}

// Register creates an account and returns it with a fresh session token.
// Returns store.ErrDuplicateEmail when the email is already registered.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (types.User, string, error) {
	hashed, err := HashPassword(password)
	if err != nil {
		return types.User{}, "", err
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
	})
	if err != nil {
		return types.User{}, "", err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns the account with a fresh session
// token. Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", err
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// VerifyToken resolves a session token to the owning account id.
func (s *AuthService) VerifyToken(token string) (int, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// GetUser loads an account by id.
func (s *AuthService) GetUser(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// CurrentUser returns the account a valid token belongs to.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (types.User, error) {
	userID, err := s.VerifyToken(token)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidToken
		}
		return types.User{}, err
	}
	return user, nil
}

func (s *AuthService) issueToken(userID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
