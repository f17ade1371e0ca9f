package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmoni/harmoniconnect/internal/apperr"
	"github.com/harmoni/harmoniconnect/internal/policy"
)

const identityKey = "identity"

// Claims — полезная нагрузка токена. Токены выпускает внешний провайдер
// аутентификации с тем же секретом.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for userID.
func GenerateToken(secret []byte, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(secret []byte, raw string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, errors.New("invalid or expired token")
	}
	return uuid.Parse(claims.UserID)
}

// IdentityResolver builds the caller identity for a token subject.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (policy.Identity, error)
}

// Authenticate кладёт Identity в контекст запроса. Без заголовка запрос
// анонимный; решать, пускать ли анонима, будет политика.
func Authenticate(secret []byte, resolver IdentityResolver, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(identityKey, policy.Anonymous())
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			respondError(c, log, apperr.Unauthenticated("authorization header must be Bearer <token>"))
			return
		}
		userID, err := parseToken(secret, raw)
		if err != nil {
			respondError(c, log, apperr.Unauthenticated("invalid or expired token"))
			return
		}

		id, err := resolver.Resolve(c.Request.Context(), userID)
		switch {
		case errors.Is(err, policy.ErrUserNotFound), errors.Is(err, policy.ErrInvalidUserID):
			respondError(c, log, apperr.Unauthenticated("token user does not exist"))
			return
		case err != nil:
			respondError(c, log, err)
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) policy.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(policy.Identity); ok {
			return id
		}
	}
	return policy.Anonymous()
}
