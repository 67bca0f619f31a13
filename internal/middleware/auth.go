package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"lambda-http-router/pkg/registry"
)

// ClaimsKey is the key used to store validated token claims in context
const ClaimsKey = "claims"

// Claims represents the JWT claims accepted by the local authorizer. They
// mirror the shape of Firebase ID tokens.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// AuthorizerClaims flattens the claims the way API Gateway JWT authorizers
// forward them: every value becomes a string, arrays as "[a b]".
func (c *Claims) AuthorizerClaims() map[string]string {
	out := map[string]string{
		"sub": c.Subject,
		"iss": c.Issuer,
	}
	if c.Email != "" {
		out["email"] = c.Email
	}
	if c.Name != "" {
		out["name"] = c.Name
	}
	if len(c.Roles) > 0 {
		out["roles"] = "[" + strings.Join(c.Roles, " ") + "]"
	}
	if c.IssuedAt != nil {
		out["iat"] = fmt.Sprintf("%d", c.IssuedAt.Unix())
	}
	if c.ExpiresAt != nil {
		out["exp"] = fmt.Sprintf("%d", c.ExpiresAt.Unix())
	}
	return out
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
	Issuer        string
}

// AuthService issues and validates tokens for the local authorizer
type AuthService struct {
	config *AuthConfig
}

// NewAuthService creates a new authentication service
func NewAuthService(config *AuthConfig) *AuthService {
	if config.TokenDuration == 0 {
		config.TokenDuration = time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "lambda-http-router"
	}
	return &AuthService{config: config}
}

// Enabled reports whether a signing secret is configured
func (a *AuthService) Enabled() bool {
	return a != nil && a.config.JWTSecret != ""
}

// GenerateToken generates a signed token for subject
func (a *AuthService) GenerateToken(subject, email string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.config.Issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(a.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.config.JWTSecret), nil
	}, jwt.WithIssuer(a.config.Issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// bearerToken extracts the token from a "Bearer <token>" header
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// OptionalAuthentication validates a bearer token when one is present and
// stores its claims in the context. Requests without a valid token pass
// through unauthenticated.
func OptionalAuthentication(authService *AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authService.Enabled() {
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err.Error(),
				"path":  c.Request.URL.Path,
			}).Debug("Optional token validation failed")
			c.Next()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set("user_id", claims.Subject)
		c.Next()
	}
}

// AuthLookup returns the auth requirement of the route serving method and
// path, or nil when the route is public or unknown.
type AuthLookup func(method, path string) *registry.AuthRequirement

// RequestPath is the path routes are matched against: the escaped form, so
// an encoded slash stays inside its segment.
func RequestPath(c *gin.Context) string {
	return c.Request.URL.EscapedPath()
}

// RouteAuthorizer enforces route auth requirements the way the API Gateway
// authorizer does in front of the function: missing credentials are 401
// unless the route is optional, missing roles are 403.
func RouteAuthorizer(lookup AuthLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		requirement := lookup(c.Request.Method, RequestPath(c))
		if requirement == nil {
			c.Next()
			return
		}

		claims, authenticated := GetClaims(c)
		if !authenticated {
			if requirement.IsOptional() {
				c.Next()
				return
			}
			logrus.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Warn("Authentication required")

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		if len(requirement.Roles) > 0 && !hasAnyRole(claims.Roles, requirement.Roles) {
			logrus.WithFields(logrus.Fields{
				"user_id":        claims.Subject,
				"user_roles":     claims.Roles,
				"required_roles": requirement.Roles,
				"path":           c.Request.URL.Path,
			}).Warn("Authorization failed - insufficient permissions")

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}

		c.Next()
	}
}

// GetClaims returns the validated token claims stored in the context
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func hasAnyRole(userRoles, requiredRoles []string) bool {
	for _, requiredRole := range requiredRoles {
		for _, userRole := range userRoles {
			if userRole == requiredRole {
				return true
			}
		}
	}
	return false
}
