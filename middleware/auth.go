package middleware

import (
	"context"
	"strings"

	"pizza-franchise-api/apperr"
	"pizza-franchise-api/auth"
	"pizza-franchise-api/metrics"
	"pizza-franchise-api/policy"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// TokenVerifier is the part of the token service the middleware needs.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*auth.Identity, error)
}

// Authenticator resolves bearer tokens into identities.
type Authenticator struct {
	tokens  TokenVerifier
	metrics metrics.Recorder
}

func NewAuthenticator(tokens TokenVerifier, rec metrics.Recorder) *Authenticator {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Authenticator{tokens: tokens, metrics: rec}
}

// Required rejects the request with 401 unless it carries a valid token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present := BearerToken(c)
		if !present {
			a.metrics.RecordTokenRejected(string(apperr.KindUnauthenticated))
			WriteAuthError(c, apperr.New(apperr.KindUnauthenticated, "authorization header required (Bearer <token>)"))
			return
		}
		if !a.verify(c, raw) {
			return
		}
		c.Next()
	}
}

// Optional lets anonymous requests through. A token that is present but
// invalid is still rejected.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present := BearerToken(c)
		if present && !a.verify(c, raw) {
			return
		}
		c.Next()
	}
}

func (a *Authenticator) verify(c *gin.Context, raw string) bool {
	id, err := a.tokens.Verify(c.Request.Context(), raw)
	if err != nil {
		a.metrics.RecordTokenRejected(string(apperr.KindOf(err)))
		WriteAuthError(c, err)
		return false
	}
	c.Set(identityKey, id)
	return true
}

// BearerToken returns the token from the Authorization header and whether
// the header was present at all.
func BearerToken(c *gin.Context) (string, bool) {
	value := strings.TrimSpace(c.GetHeader("Authorization"))
	if value == "" {
		return "", false
	}
	if len(value) < len("bearer ") || !strings.EqualFold(value[:len("bearer ")], "bearer ") {
		return value, true
	}
	return strings.TrimSpace(value[len("bearer "):]), true
}

// GetIdentity returns the verified caller, or nil for anonymous requests.
func GetIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

// GetSubject is the caller as the authorization engine sees it.
func GetSubject(c *gin.Context) *policy.Subject {
	return GetIdentity(c).Subject()
}
