package advisor

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/horasecreta/advisor/am"
)

// AuthResult is the verdict of the token check
type AuthResult int

const (
	AuthAuthorized AuthResult = iota
	AuthUnauthorized
	AuthMisconfigured
)

func (r AuthResult) String() string {
	switch r {
	case AuthAuthorized:
		return "authorized"
	case AuthUnauthorized:
		return "unauthorized"
	case AuthMisconfigured:
		return "misconfigured"
	default:
		return "unknown"
	}
}

// TokenComparer reports whether the supplied token matches the secret
type TokenComparer func(supplied, configured string) bool

// ExactCompare is plain string equality
func ExactCompare(supplied, configured string) bool {
	return supplied == configured
}

// ConstantTimeCompare compares in time independent of where the strings differ
func ConstantTimeCompare(supplied, configured string) bool {
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(configured)) == 1
}

// ComparerFor maps a server.token_compare value onto a comparer
func ComparerFor(name string) TokenComparer {
	if strings.EqualFold(strings.TrimSpace(name), am.TokenCompareConstantTime) {
		return ConstantTimeCompare
	}
	return ExactCompare
}

// ExtractToken reads the caller credential: a Bearer Authorization header
// first, then X-Service-Token. Both are trimmed.
func ExtractToken(h http.Header) string {
	auth := strings.TrimSpace(h.Get("Authorization"))
	if len(auth) >= 7 && strings.EqualFold(auth[:7], "bearer ") {
		if tok := strings.TrimSpace(auth[7:]); tok != "" {
			return tok
		}
	}
	return strings.TrimSpace(h.Get("X-Service-Token"))
}

// Authenticate checks supplied against configured with exact equality
func Authenticate(supplied, configured string) AuthResult {
	return NewAuthenticator(configured, nil).Authenticate(supplied)
}

// Authenticator holds the shared secret read at startup
type Authenticator struct {
	secret  string
	compare TokenComparer
}

// NewAuthenticator creates an authenticator. A nil compare means ExactCompare.
func NewAuthenticator(secret string, compare TokenComparer) *Authenticator {
	if compare == nil {
		compare = ExactCompare
	}
	return &Authenticator{secret: strings.TrimSpace(secret), compare: compare}
}

// Authenticate checks the supplied token. A missing secret is reported
// before any comparison is made.
func (a *Authenticator) Authenticate(supplied string) AuthResult {
	if a.secret == "" {
		return AuthMisconfigured
	}
	if supplied == "" || !a.compare(supplied, a.secret) {
		return AuthUnauthorized
	}
	return AuthAuthorized
}

// Configured reports whether a secret is set
func (a *Authenticator) Configured() bool { return a.secret != "" }

// SecretLen is the length of the secret, for diagnostics
func (a *Authenticator) SecretLen() int { return len(a.secret) }
