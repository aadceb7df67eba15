package jwtmw

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"sns_backend/internal/shared/apperror"
)

// Keys under which Guard stores the caller on the gin context.
const (
	ContextUserID    = "userID"
	ContextEmail     = "email"
	ContextToken     = "token"
	ContextTokenType = "tokenType"
)

// Verifier validates a raw token.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// Subject is the authenticated caller of a guarded request.
type Subject struct {
	UserID uint
	Email  string
	Token  string
	Kind   Kind
}

type subjectKey struct{}

// SubjectFromContext returns the caller attached by Guard.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(subjectKey{}).(Subject)
	return s, ok
}

// Guard admits only requests with a valid bearer token of the given kind.
// A missing header, a malformed header, a bad token and a token of the other kind all answer 401.
func Guard(v Verifier, kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apperror.Respond(c, apperror.Unauthorized("missing bearer token"))
			return
		}

		raw, err := ExtractToken(header, SchemeBearer)
		if err != nil {
			apperror.Respond(c, apperror.Unauthorized("malformed authorization header", err))
			return
		}

		claims, err := v.Verify(raw)
		if err != nil {
			apperror.Respond(c, apperror.Unauthorized("invalid token", err))
			return
		}
		if claims.Type != kind {
			apperror.Respond(c, apperror.Unauthorized("invalid token", fmt.Errorf("%s token required, got %s", kind, claims.Type)))
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			apperror.Respond(c, apperror.Unauthorized("invalid token", err))
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextToken, raw)
		c.Set(ContextTokenType, claims.Type)
		subject := Subject{UserID: userID, Email: claims.Email, Token: raw, Kind: claims.Type}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), subjectKey{}, subject))

		c.Next()
	}
}

// UserID returns the id Guard stored on c.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
