package Controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Models"
	"Invoicing/middleware"
)

// AuthController handles registration and sessions
type AuthController struct {
	DB       *gorm.DB
	Secret   []byte
	TokenTTL time.Duration
	Now      func() time.Time
}

func NewAuthController(db *gorm.DB, secret string, ttl time.Duration) *AuthController {
	return &AuthController{DB: db, Secret: []byte(secret), TokenTTL: ttl, Now: time.Now}
}

// Register creates a user. The first user becomes an administrator.
// POST /api/auth/register
func (a *AuthController) Register(c *fiber.Ctx) error {
	var req Models.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, err)
	}

	user := Models.User{
		Name:       req.Name,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Password:   hash,
		Permission: Models.PermissionUser,
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			user.Permission = Models.PermissionAdmin
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"data":    user,
	})
}

// Login checks credentials and sets the session cookie.
// POST /api/auth/login
func (a *AuthController) Login(c *fiber.Ctx) error {
	var req Models.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}

	invalid := c.Status(fiber.StatusUnauthorized)
	var user Models.User
	if err := a.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid.JSON(fiber.Map{"error": "unauthorized", "message": "Invalid email or password"})
		}
		return respondError(c, err)
	}
	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(req.Password)); err != nil {
		return invalid.JSON(fiber.Map{"error": "unauthorized", "message": "Invalid email or password"})
	}

	token, expires, err := middleware.IssueToken(a.Secret, user.ID, a.TokenTTL, a.Now())
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"message": "Logged in",
		"data":    fiber.Map{"token": token, "expires_at": expires, "user": user},
	})
}

// Logout clears the session cookie.
// POST /api/auth/logout
func (a *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Expires:  a.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the authenticated user.
// GET /api/auth/me
func (a *AuthController) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return respondError(c, Billing.NotFound("Me", "no authenticated user"))
	}
	return c.JSON(fiber.Map{"data": user})
}
