package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
	"property-portal/internal/visibility"
)

const (
	requesterKey = "requester"
	userKey      = "user"

	// AccessTokenCookie is read when no Authorization header is sent.
	AccessTokenCookie = "sb-access-token"
)

// UserResolver maps an identity provider subject to an internal user.
type UserResolver interface {
	GetByAuthID(ctx context.Context, authID string) (*model.User, error)
}

// Auth validates HMAC-signed access tokens issued by the identity provider
// and attaches the matching requester to the request.
type Auth struct {
	secret []byte
	alg    string
	users  UserResolver
}

func NewAuth(secret, alg string, users UserResolver) *Auth {
	return &Auth{secret: []byte(secret), alg: alg, users: users}
}

// Required rejects requests without a valid token.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, apperr.Authentication("No bearer token"))
			return
		}
		if err := a.attach(c, token); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// Optional lets anonymous requests through but still rejects bad tokens.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Set(requesterKey, visibility.Anonymous())
			c.Next()
			return
		}
		if err := a.attach(c, token); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (a *Auth) attach(c *gin.Context, tokenStr string) error {
	subject, err := a.subject(tokenStr)
	if err != nil {
		return err
	}
	u, err := a.users.GetByAuthID(c.Request.Context(), subject)
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.Authentication("Account is not registered")
	}
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	if !u.Active {
		return apperr.Authorization("Account is disabled")
	}
	c.Set(userKey, u)
	c.Set(requesterKey, visibility.FromUser(u))
	return nil
}

func (a *Auth) subject(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{a.alg}))
	if err != nil || !token.Valid {
		return "", apperr.Authentication("Invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", apperr.Authentication("Invalid claims")
	}
	return sub, nil
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v, err := c.Cookie(AccessTokenCookie); err == nil {
		return v
	}
	return ""
}

// RequesterFrom returns the requester attached by Auth, anonymous if none.
func RequesterFrom(c *gin.Context) visibility.Requester {
	if v, ok := c.Get(requesterKey); ok {
		if r, ok := v.(visibility.Requester); ok {
			return r
		}
	}
	return visibility.Anonymous()
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
