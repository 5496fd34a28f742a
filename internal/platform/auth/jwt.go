package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret  = errors.New("jwt secret is empty")
	ErrEmptyIssuer  = errors.New("jwt issuer is empty")
	ErrInvalidTTL   = errors.New("jwt ttl must be > 0")
	ErrEmptySubject = errors.New("jwt subject is empty")
)

type TokenService interface {
	Sign(id Identity) (string, time.Time, error)
	Verify(token string) (Identity, error)
}

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type hs256Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewHS256Service(secret, issuer string, ttl time.Duration) (TokenService, error) {
	switch {
	case secret == "":
		return nil, ErrEmptySecret
	case issuer == "":
		return nil, ErrEmptyIssuer
	case ttl <= 0:
		return nil, ErrInvalidTTL
	}
	return &hs256Service{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Sign 返回 token 和它的过期时间
func (h *hs256Service) Sign(id Identity) (string, time.Time, error) {
	if id.Subject == "" {
		return "", time.Time{}, ErrEmptySubject
	}
	now := h.now()
	exp := now.Add(h.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.issuer,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := t.SignedString(h.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify 只接受本服务签发、HS256、带过期时间且 sub 非空的 token
func (h *hs256Service) Verify(token string) (Identity, error) {
	var c claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)
	if _, err := parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return h.secret, nil
	}); err != nil {
		return Identity{}, err
	}
	if c.Subject == "" {
		return Identity{}, ErrEmptySubject
	}
	return Identity{Subject: c.Subject, Role: c.Role}, nil
}
