package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }
func (e *authError) Unwrap() error { return domain.ErrUnauthorized }

// Every error below satisfies errors.Is(err, domain.ErrUnauthorized).
var (
	ErrInvalidCredentials error = &authError{"Invalid credentials"}
	ErrMissingToken       error = &authError{"Access token required"}
	ErrTokenExpired       error = &authError{"Token expired"}
	ErrTokenInvalid       error = &authError{"Invalid token"}
)

// Principal is the identity extracted from a verified token.
type Principal struct {
	Username string `json:"username"`
}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Token struct {
	Token     string
	ExpiresAt time.Time
	ExpiresIn string
}

type Authenticator interface {
	Login(username, password string) (Token, error)
	Verify(raw string) (Principal, error)
}

type Service struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	ttlLabel     string
	hashCost     int
	now          func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost sets the bcrypt cost used when the config carries a plain password.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func NewService(cfg config.AuthConfig, opts ...Option) (*Service, error) {
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, fmt.Errorf("parse token ttl: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	s := &Service{
		username: cfg.Username,
		secret:   []byte(cfg.JWTSecret),
		ttl:      ttl,
		ttlLabel: cfg.TokenTTL,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.PasswordHash != "" {
		s.passwordHash = []byte(cfg.PasswordHash)
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		s.passwordHash = hash
	}
	return s, nil
}

// Login checks the demo credential pair and issues a signed HS256 token.
func (s *Service) Login(username, password string) (Token, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	if !userOK || !passOK {
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(username)
}

func (s *Service) issue(username string) (Token, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Token: signed, ExpiresAt: exp, ExpiresIn: s.ttlLabel}, nil
}

// Verify parses a raw token. Expiry is reported as ErrTokenExpired, any other
// defect as ErrTokenInvalid.
func (s *Service) Verify(raw string) (Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Principal{}, ErrMissingToken
	}

	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Principal{}, ErrTokenInvalid
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	if username == "" {
		return Principal{}, ErrTokenInvalid
	}
	return Principal{Username: username}, nil
}

var _ Authenticator = (*Service)(nil)
