package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	actorKey    = "qualtrack.actor"
	actorHeader = "X-Actor"
)

// Claims carries the display name recorded as changed_by in the audit trail.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) actor() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return strings.TrimSpace(c.Subject)
}

// authenticate requires an HS256 bearer token when secret is set. Without a secret the
// X-Actor header names the user.
func authenticate(secret string, issuer string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) {
			c.Set(actorKey, strings.TrimSpace(c.GetHeader(actorHeader)))
			c.Next()
		}
	}

	key := []byte(secret)
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			failStatus(c, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
			return
		}

		var claims Claims
		_, err := parser.ParseWithClaims(parts[1], &claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil {
			message := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "token expired"
			}
			failStatus(c, http.StatusUnauthorized, codeUnauthorized, message)
			return
		}
		actor := claims.actor()
		if actor == "" {
			failStatus(c, http.StatusUnauthorized, codeUnauthorized, "token has no subject")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) string {
	return c.GetString(actorKey)
}

// IssueToken signs a token accepted by the bearer middleware.
func IssueToken(secret string, claims Claims) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
