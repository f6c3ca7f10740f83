package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrMissingCredentials signals an empty email or password.
	ErrMissingCredentials = errors.New("auth: email and password are required")
	// ErrWeakPassword signals the password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password does not meet strength requirements")
	// ErrInvalidEmail signals the email fails the shape check.
	ErrInvalidEmail = errors.New("auth: malformed email address")
	// ErrTokenRevoked signals the token was invalidated by logout.
	ErrTokenRevoked = errors.New("auth: token revoked")
	// ErrInvalidRole signals an unknown role in a registration request.
	ErrInvalidRole = errors.New("auth: invalid role")
)

// emailShape is deliberately loose: local part, @, domain with a dot.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Policies names the optional hardening rules. Both default to off; the
// 8-character minimum is always enforced regardless.
type Policies struct {
	RequireEmailShape     bool
	RequireStrongPassword bool
}

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
	policies  Policies
	revoked   *RevocationList
	now       func() time.Time
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string, policies Policies) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		policies:  policies,
		now:       time.Now,
	}
}

// WithRevocationList enables logout support backed by the given denylist.
func (s *Service) WithRevocationList(list *RevocationList) *Service {
	s.revoked = list
	return s
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a new user account with a hashed password.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}
	if s.policies.RequireEmailShape && !emailShape.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if s.policies.RequireStrongPassword && !isStrongPassword(req.Password) {
		return nil, ErrWeakPassword
	}

	role := Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = RoleClient
	}
	if !isValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Login authenticates a user and returns a signed JWT token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token: token,
		User:  user,
	}, nil
}

// Logout revokes the given token until its natural expiry. A no-op unless a
// revocation list is configured.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	if s.revoked == nil {
		return nil
	}
	userID, _, err := s.VerifyToken(ctx, tokenString)
	if err != nil {
		return err
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return fmt.Errorf("auth: parse token claims: %w", err)
	}
	ttl := tokenTTL
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ttl = exp.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Revoke(ctx, tokenString, ttl); err != nil {
		return fmt.Errorf("auth: revoke token for user %s: %w", userID, err)
	}
	return nil
}

// GetUserByID retrieves user information by ID.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyToken validates a JWT token and returns the user ID and role.
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (string, Role, error) {
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, tokenString)
		if err != nil {
			return "", "", fmt.Errorf("auth: check revocation: %w", err)
		}
		if revoked {
			return "", "", ErrTokenRevoked
		}
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("auth: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(string)
		if !ok {
			return "", "", fmt.Errorf("auth: invalid user_id in token")
		}
		roleStr, ok := claims["role"].(string)
		if !ok {
			return "", "", fmt.Errorf("auth: invalid role in token")
		}
		role := Role(roleStr)
		if !isValidRole(role) {
			return "", "", fmt.Errorf("auth: invalid role %q in token", roleStr)
		}
		return userID, role, nil
	}

	return "", "", fmt.Errorf("auth: invalid token")
}

const tokenTTL = 24 * time.Hour

// generateToken creates a JWT token for the user.
func (s *Service) generateToken(userID string, role Role) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func isStrongPassword(password string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

func isValidRole(role Role) bool {
	switch role {
	case RoleClient, RoleAdmin:
		return true
	default:
		return false
	}
}
