package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
)

const actorContextKey = "dmm.actor"

// Claims are the JWT claims identifying the acting user
type Claims struct {
	jwt.RegisteredClaims
	UserID        int64  `json:"uid"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role"`
	InstitutionID *int64 `json:"institution_id,omitempty"`
}

// Actor converts verified claims into the workflow actor
func (c *Claims) Actor() (domainwf.Actor, error) {
	role := entity.Role(c.Role)
	if !role.IsValid() {
		return domainwf.Actor{}, fmt.Errorf("unknown role %q", c.Role)
	}
	if c.UserID <= 0 {
		return domainwf.Actor{}, errors.New("token user id is required")
	}
	if role == entity.RoleInstitutionUser && c.InstitutionID == nil {
		return domainwf.Actor{}, errors.New("institution users must carry an institution id")
	}

	actor := domainwf.Actor{UserID: c.UserID, Role: role}
	if role == entity.RoleInstitutionUser {
		id := *c.InstitutionID
		actor.InstitutionID = &id
	}
	return actor, nil
}

// TokenValidator verifies HS256 bearer tokens
type TokenValidator struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewTokenValidator creates a validator for tokens signed with secret
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{
		secret: []byte(secret),
		issuer: issuer,
		leeway: 30 * time.Second,
	}
}

// Validate parses and validates a token string
func (v *TokenValidator) Validate(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Issue signs a token for the given claims valid for ttl
func (v *TokenValidator) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.Issuer = v.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Subject == "" {
		claims.Subject = fmt.Sprintf("%d", claims.UserID)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// authMiddleware rejects requests without a valid bearer token and stores
// the actor on the gin context
func authMiddleware(validator *TokenValidator, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing Authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid Authorization header format (expected 'Bearer <token>')")
			return
		}

		// Fail closed if no validator configured
		if validator == nil {
			abortUnauthorized(c, "authentication not configured")
			return
		}

		claims, err := validator.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Info("Rejected bearer token", "error", err, "request_id", requestID(c))
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		actor, err := claims.Actor()
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// actorFrom returns the actor stored by authMiddleware
func actorFrom(c *gin.Context) domainwf.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(domainwf.Actor); ok {
			return actor
		}
	}
	return domainwf.Actor{}
}
