package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/soltixdb/insights/internal/config"
	"github.com/soltixdb/insights/internal/logging"
	"github.com/soltixdb/insights/internal/models"
)

// MinAPIKeyLength is the minimum required length for API keys
const MinAPIKeyLength = 32

// TenantLocal is the fiber.Ctx local holding the authenticated tenant
const TenantLocal = "tenant_id"

// ValidateAPIKey checks if an API key meets the security requirements
func ValidateAPIKey(key string) bool {
	if len(key) < MinAPIKeyLength {
		return false
	}
	if strings.TrimSpace(key) == "" {
		return false
	}
	return true
}

// Auth returns the middleware for cfg.Mode
func Auth(logger *logging.Logger, cfg config.AuthConfig) fiber.Handler {
	switch cfg.Mode {
	case config.AuthModeAPIKey:
		return APIKeyAuth(logger, cfg.APIKeys, true)
	case config.AuthModeJWT:
		return JWTAuth(logger, cfg.JWTSecret, cfg.JWTIssuer)
	default:
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
}

// parseAPIKeys maps each valid key to its tenant. Entries are either a bare
// key or "tenant:key".
func parseAPIKeys(logger *logging.Logger, apiKeys []string) map[string]string {
	keyMap := make(map[string]string)
	for _, entry := range apiKeys {
		if entry == "" {
			continue
		}
		tenant, key, found := strings.Cut(entry, ":")
		if !found {
			tenant, key = "", entry
		}
		if !ValidateAPIKey(key) {
			logger.Warn("API key does not meet security requirements",
				"key_length", len(key),
				"min_required", MinAPIKeyLength,
				"key_prefix", maskAPIKey(key),
			)
			continue
		}
		keyMap[key] = tenant
	}
	return keyMap
}

// APIKeyAuth creates an API key authentication middleware
func APIKeyAuth(logger *logging.Logger, apiKeys []string, enabled bool) fiber.Handler {
	if !enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	keyMap := parseAPIKeys(logger, apiKeys)
	if len(keyMap) == 0 && len(apiKeys) > 0 {
		logger.Error("No valid API keys configured - all provided keys failed validation",
			"total_keys", len(apiKeys),
			"min_required_length", MinAPIKeyLength,
		)
	}

	return func(c *fiber.Ctx) error {
		// X-API-Key, "Authorization: Bearer <key>" or a bare Authorization value
		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			apiKey = bearerToken(c)
		}

		if apiKey == "" {
			logger.Warn("API key missing",
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
			)
			return unauthorized(c, "API key is required. Provide it via X-API-Key header or Authorization header.")
		}

		tenant, ok := keyMap[apiKey]
		if !ok {
			logger.Warn("Invalid API key",
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
				"api_key_prefix", maskAPIKey(apiKey),
			)
			return unauthorized(c, "Invalid API key.")
		}

		setTenant(c, tenant)
		return c.Next()
	}
}

// JWTAuth verifies an HMAC-signed bearer token. The tenant is read from the
// tenant_id claim, falling back to sub.
func JWTAuth(logger *logging.Logger, secret, issuer string) fiber.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return unauthorized(c, "Bearer token is required.")
		}

		claims := jwt.MapClaims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			logger.Warn("Invalid bearer token",
				"path", c.Path(),
				"method", c.Method(),
				"ip", c.IP(),
				"error", err,
			)
			return unauthorized(c, "Invalid or expired token.")
		}

		tenant, _ := claims["tenant_id"].(string)
		if tenant == "" {
			tenant, _ = claims.GetSubject()
		}
		setTenant(c, tenant)
		return c.Next()
	}
}

// TenantID returns the tenant set by the auth middleware
func TenantID(c *fiber.Ctx) string {
	tenant, _ := c.Locals(TenantLocal).(string)
	return tenant
}

func setTenant(c *fiber.Ctx, tenant string) {
	if tenant == "" {
		return
	}
	c.Locals(TenantLocal, tenant)
	c.SetUserContext(logging.WithTenantID(c.UserContext(), tenant))
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(header)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}

// maskAPIKey masks API key for logging (show only first 4 chars)
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
