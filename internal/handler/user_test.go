package handler

import (
	"net/http"
	"testing"

	"tenant-deployment-system/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleUserLogin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		input      LoginInput
		wantStatus int
	}{
		{"valid_login", LoginInput{Username: "admin", Password: adminPassword}, fiber.StatusOK},
		{"wrong_password", LoginInput{Username: "admin", Password: "nope"}, fiber.StatusUnauthorized},
		{"unknown_user", LoginInput{Username: "ghost", Password: "nope"}, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/v1/users/login", tt.input, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	var failed int64
	require.NoError(t, env.h.DB.Model(&model.LoginLog{}).Where("status = ?", model.LoginFailed).Count(&failed).Error)
	assert.Equal(t, int64(1), failed)
}

func TestHandleUserInfoAndPassword(t *testing.T) {
	env := newTestEnv(t)

	resp := env.admin(t, http.MethodGet, "/api/v1/users/info", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var user map[string]interface{}
	decode(t, resp, &user)
	assert.Equal(t, "admin", user["username"])
	assert.NotContains(t, user, "password")

	resp = env.admin(t, http.MethodPost, "/api/v1/users/change-password", map[string]string{
		"currentPassword": "wrong", "newPassword": "new-password-1",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.admin(t, http.MethodPost, "/api/v1/users/change-password", map[string]string{
		"currentPassword": adminPassword, "newPassword": "short",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.admin(t, http.MethodPost, "/api/v1/users/change-password", map[string]string{
		"currentPassword": adminPassword, "newPassword": "new-password-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/users/login", LoginInput{Username: "admin", Password: "new-password-1"}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.admin(t, http.MethodGet, "/api/v1/users/login-logs", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var logs struct {
		Total int64 `json:"total"`
	}
	decode(t, resp, &logs)
	assert.Equal(t, int64(2), logs.Total)
}
