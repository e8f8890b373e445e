package Controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ShiftCheck/Models"
	"ShiftCheck/middleware"
)

var validate = validator.New()

// currentUser returns the session user stored by middleware.Verify.
func currentUser(c *fiber.Ctx) Models.User {
	user, _ := c.Locals("user").(Models.User)
	return user
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var user Models.User
	if err := Models.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
	}
	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Account is deactivated"})
	}

	claims := jwt.RegisteredClaims{
		Issuer:    strconv.Itoa(int(user.Id)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.SecretKey())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not log in"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(user)
}

func Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func CurrentUser(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

type RegisterUserRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Pin        string `json:"pin" validate:"omitempty,numeric,min=4,max=8"`
	Permission int    `json:"permission" validate:"required,oneof=1 3 4"`
}

// RegisterUser adds an actor to the admin's tenant roster.
func RegisterUser(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to register user"})
	}

	user := Models.User{
		TenantID:   currentUser(c).TenantID,
		Name:       req.Name,
		Email:      req.Email,
		Password:   hash,
		Pin:        req.Pin,
		Permission: req.Permission,
		IsActive:   true,
	}
	if err := Models.DB.Create(&user).Error; err != nil {
		if Models.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "A user with this email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to register user"})
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

type UpdateUserRequest struct {
	Id         uint    `json:"id" validate:"required"`
	Name       *string `json:"name"`
	Pin        *string `json:"pin" validate:"omitempty,numeric,min=4,max=8"`
	Permission *int    `json:"permission" validate:"omitempty,oneof=1 3 4"`
	IsActive   *bool   `json:"is_active"`
}

func UpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var user Models.User
	if err := Models.DB.Where("id = ? AND tenant_id = ?", req.Id, currentUser(c).TenantID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Pin != nil {
		user.Pin = *req.Pin
	}
	if req.Permission != nil {
		user.Permission = *req.Permission
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := Models.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update user"})
	}
	return c.JSON(user)
}

func FetchUsers(c *fiber.Ctx) error {
	var users []Models.User
	if err := Models.DB.Where("tenant_id = ?", currentUser(c).TenantID).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to retrieve users"})
	}
	return c.JSON(users)
}

func DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}
	var user Models.User
	if err := Models.DB.Where("id = ? AND tenant_id = ?", id, currentUser(c).TenantID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	// Deactivate instead of hard-deleting so submission history keeps its actor.
	user.IsActive = false
	if err := Models.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to deactivate user"})
	}
	return c.JSON(fiber.Map{"message": "User deactivated"})
}

type ValidatePinRequest struct {
	Pin string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

// ValidatePin checks a PIN against the tenant roster. A wrong PIN is a
// normal business outcome: the response is 200 with valid=false so the
// dialog stays open, distinct from a 5xx storage failure.
func ValidatePin(c *fiber.Ctx) error {
	var req ValidatePinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	actor, err := Models.ValidatePin(Models.DB, currentUser(c).TenantID, req.Pin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to validate PIN"})
	}
	if actor == nil {
		return c.JSON(fiber.Map{"valid": false, "message": "Incorrect PIN"})
	}
	return c.JSON(fiber.Map{"valid": true, "actor": fiber.Map{"id": actor.Id, "name": actor.Name}})
}

// notFound reports whether err is a missing-row read, as opposed to a
// storage failure.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
