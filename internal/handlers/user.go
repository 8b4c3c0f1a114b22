package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/edvlasov/blog-backend/internal/apperror"
	"github.com/edvlasov/blog-backend/internal/hash"
	"github.com/edvlasov/blog-backend/internal/logging"
	"github.com/edvlasov/blog-backend/internal/middleware/auth"
	"github.com/edvlasov/blog-backend/internal/models"
	"github.com/edvlasov/blog-backend/internal/mykafka"
	"github.com/edvlasov/blog-backend/internal/token"
)

type UserHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

type signupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signinRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *UserHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *UserHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewInvalidInput("inputs are incorrect", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var existing models.User
	result := h.DB.Where("username = ?", req.Username).First(&existing)
	if result.Error == nil {
		return apperror.NewConflict("user already exists")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return apperror.NewStoreError("signup failed", result.Error)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return apperror.NewStoreError("signup failed", err)
	}

	user := models.User{
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: passwordHash,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return apperror.NewStoreError("signup failed", err)
	}

	signed, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return apperror.NewStoreError("signup failed", err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_signed_up",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{"token": signed})
}

func (h *UserHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewInvalidInput("inputs are incorrect", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewInvalidCredentials("incorrect credentials")
		}
		return apperror.NewStoreError("signin failed", err)
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return apperror.NewInvalidCredentials("incorrect credentials")
	}

	signed, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return apperror.NewStoreError("signin failed", err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_signed_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{"token": signed})
}

// Profile returns the caller's record and posts. The contract answers 403, not
// 404, when the subject no longer exists.
func (h *UserHandler) Profile(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return apperror.NewUnauthenticated("you are not logged in")
	}

	var user models.User
	if err := h.DB.Preload("Posts").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.UnauthenticatedError, "user not found", nil)
		}
		return apperror.NewStoreError("profile lookup failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"userData":  user,
		"userPosts": user.Posts,
	})
}
