package echoapi

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/session"
)

const tokenContextKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Principal returns the signed in teacher the claims were issued for.
func (c Claims) Principal() session.Principal {
	return session.Principal{UID: c.Subject, Email: c.Email}
}

// ttl is how long the token of the claims remains valid.
func (c Claims) ttl() time.Duration {
	return time.Until(time.Unix(c.ExpiresAt, 0))
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// NewClaims returns fresh claims for p. origIat is kept across refreshes.
func NewClaims(conf *core.Config, p session.Principal, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    conf.AppName,
			Subject:   p.UID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        p.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jc := jwtConfig(conf)
	method := jwt.GetSigningMethod(jc.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jc.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// Revocations blacklists token IDs until the tokens expire.
type Revocations interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevocations keeps revoked token IDs in memory; used when no Redis is configured.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time // {jti: expiry}
	now     func() time.Time
}

var _ Revocations = (*MemoryRevocations)(nil)

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *MemoryRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
		}
	}
	r.revoked[jti] = now.Add(ttl)
	return nil
}

func (r *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.revoked[jti]
	return ok && exp.After(r.now()), nil
}

func revocationMiddleware(revocations Revocations) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			revoked, err := revocations.IsRevoked(ctx.Request().Context(), claims.Id)
			if err != nil {
				return errors.Wrap(err, "checking token revocation")
			}
			if revoked {
				return errTokenRevoked
			}
			return next(ctx)
		}
	}
}
