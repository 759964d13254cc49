package handler

import (
	"strconv"
	"time"

	"tenant-deployment-system/internal/middleware"
	"tenant-deployment-system/internal/model"
	"tenant-deployment-system/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) HandleUserLogin(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	ctx := c.UserContext()
	var user model.User
	if err := h.DB.WithContext(ctx).Where("username = ?", input.Username).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid username or password",
		})
	}

	loginLog := &model.LoginLog{
		UserID:    user.ID,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Status:    model.LoginSuccess,
		CreatedAt: time.Now().UTC(),
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil || user.Status != "active" {
		loginLog.Status = model.LoginFailed
		h.DB.WithContext(ctx).Create(loginLog)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid username or password",
		})
	}

	h.DB.WithContext(ctx).Create(loginLog)
	user.LastLogin = time.Now().UTC()
	h.DB.WithContext(ctx).Model(&user).Update("last_login", user.LastLogin)

	token, err := h.Tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		zap.L().Error("token generation failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate token",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) HandleUserInfo(c *fiber.Ctx) error {
	var user model.User
	if err := h.DB.WithContext(c.UserContext()).First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}
	return c.JSON(user)
}

func (h *Handler) HandleGetLoginLogs(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	page, pageSize := pagination(c)

	var logs []model.LoginLog
	var total int64

	db := h.DB.WithContext(c.UserContext()).Model(&model.LoginLog{}).Where("user_id = ?", userID)
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to count login logs",
		})
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load login logs",
		})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"size":  pageSize,
	})
}

func (h *Handler) HandleChangePassword(c *fiber.Ctx) error {
	type ChangePasswordInput struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	input := new(ChangePasswordInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if len(input.NewPassword) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "new password must be at least 8 characters",
		})
	}

	ctx := c.UserContext()
	var user model.User
	if err := h.DB.WithContext(ctx).First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "current password is incorrect",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to hash password",
		})
	}

	if err := h.DB.WithContext(ctx).Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update password",
		})
	}

	h.Logs.Record(ctx, user.ID, service.ActionPasswordChange, "user", strconv.FormatUint(uint64(user.ID), 10), nil)
	return c.JSON(fiber.Map{
		"message": "password updated",
	})
}
