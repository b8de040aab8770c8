package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"Invoicing/Models"
)

// CookieName is the cookie carrying the session token.
const CookieName = "jwt"

const userKey = "user"

// Auth verifies session tokens against the users table.
type Auth struct {
	DB     *gorm.DB
	Secret []byte
}

func NewAuth(db *gorm.DB, secret string) *Auth {
	return &Auth{DB: db, Secret: []byte(secret)}
}

// IssueToken signs a token whose issuer is the user id.
func IssueToken(secret []byte, userID uint, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expires := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

// Verify requires a valid token for a user whose permission is at least
// requiredPermission. The user is stored in Locals for handlers.
func (a *Auth) Verify(requiredPermission int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFrom(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Not logged in",
			})
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.Secret, nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid or expired token",
			})
		}

		var user Models.User
		if err := a.DB.Where("id = ?", claims.Issuer).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error":   "unauthorized",
					"message": "User not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal",
				"message": "Failed to load user",
			})
		}

		c.Locals(userKey, user)

		if user.Permission < requiredPermission || user.Permission == 0 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "Insufficient permissions to access this resource",
			})
		}
		return c.Next()
	}
}

func tokenFrom(c *fiber.Ctx) string {
	if cookie := c.Cookies(CookieName); cookie != "" {
		return cookie
	}
	header := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// CurrentUser returns the user stored by Verify.
func CurrentUser(c *fiber.Ctx) (Models.User, bool) {
	user, ok := c.Locals(userKey).(Models.User)
	return user, ok
}
