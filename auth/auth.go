package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
	ResetToken   TokenType = "reset"
)

type Claims struct {
	Type  TokenType `json:"type"`
	Email string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	return uint(id), nil
}

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokens(secret string, accessTTL, refreshTTL, resetTTL time.Duration) *Tokens {
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// WithClock swaps the time source, for tests.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	cp := *t
	cp.now = now
	return &cp
}

func (t *Tokens) ttl(typ TokenType) time.Duration {
	switch typ {
	case RefreshToken:
		return t.refreshTTL
	case ResetToken:
		return t.resetTTL
	default:
		return t.accessTTL
	}
}

func (t *Tokens) sign(claims *Claims) (string, error) {
	now := t.now()
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl(claims.Type)))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.Type, err)
	}
	return signed, nil
}

func (t *Tokens) Issue(userID uint, typ TokenType) (string, error) {
	return t.sign(&Claims{
		Type:             typ,
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatUint(uint64(userID), 10)},
	})
}

func (t *Tokens) IssuePair(userID uint) (Pair, error) {
	access, err := t.Issue(userID, AccessToken)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := t.Issue(userID, RefreshToken)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// IssueReset binds a password reset to an email address.
func (t *Tokens) IssueReset(email string) (string, error) {
	return t.sign(&Claims{Type: ResetToken, Email: email})
}

// Parse verifies signature, expiry and token type.
func (t *Tokens) Parse(token string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: got %s token, want %s", ErrInvalidToken, claims.Type, want)
	}
	return claims, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
