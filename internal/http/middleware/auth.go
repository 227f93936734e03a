package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/CryptracSolutions/ultaura-insights/internal/pkg/ctxutil"
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/logger"
)

// AuthMiddleware verifies caregiver bearer tokens minted by the account
// platform and attaches the caller identity to the request context. Tokens
// are HMAC-signed; the shared secret comes from configuration.
type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(baseLog *logger.Logger, secret string) (*AuthMiddleware, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth token secret required")
	}
	return &AuthMiddleware{
		log:    baseLog.With("Middleware", "AuthMiddleware"),
		secret: []byte(secret),
	}, nil
}

type caregiverClaims struct {
	AccountID   string `json:"account_id"`
	CaregiverID string `json:"caregiver_id"`
	jwt.RegisteredClaims
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		rd, err := am.parseToken(tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		ctx := ctxutil.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) parseToken(tokenString string) (*ctxutil.RequestData, error) {
	var claims caregiverClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("account_id claim: %w", err)
	}
	rd := &ctxutil.RequestData{AccountID: accountID}
	if claims.CaregiverID != "" {
		caregiverID, err := uuid.Parse(claims.CaregiverID)
		if err != nil {
			return nil, fmt.Errorf("caregiver_id claim: %w", err)
		}
		rd.CaregiverID = caregiverID
	}
	return rd, nil
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
