package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tenant-deployment-system/internal/apperr"
	"tenant-deployment-system/internal/database"
	"tenant-deployment-system/internal/deploy"
	"tenant-deployment-system/internal/licensing"
	"tenant-deployment-system/internal/model"
	"tenant-deployment-system/internal/repository"
	"tenant-deployment-system/internal/service"
	"tenant-deployment-system/internal/template"
	"tenant-deployment-system/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const adminPassword = "admin-password"

type fakeDeployer struct {
	deploys  []deploy.DeployRequest
	disables []deploy.DisableRequest
	outcome  deploy.Outcome
}

func (f *fakeDeployer) Deploy(_ context.Context, req deploy.DeployRequest) deploy.Outcome {
	f.deploys = append(f.deploys, req)
	return f.outcome
}

func (f *fakeDeployer) Disable(_ context.Context, req deploy.DisableRequest) deploy.Outcome {
	f.disables = append(f.disables, req)
	return f.outcome
}

type testEnv struct {
	app      *fiber.App
	h        *Handler
	deployer *fakeDeployer
	token    string
	acme     *model.Tenant
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := database.NewTestDB(t)
	require.NoError(t, database.EnsureAdmin(db, adminPassword))

	store := repository.New(db)
	acme := &model.Tenant{ExternalID: "acme", Name: "Acme"}
	require.NoError(t, store.CreateTenant(context.Background(), acme))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alerts.json"), []byte(`{"definition":{}}`), 0o644))

	deployer := &fakeDeployer{outcome: deploy.Outcome{Success: true, Message: "Workflow deployed successfully", DeploymentID: 1}}
	h := &Handler{
		DB:         db,
		Store:      store,
		Gatekeeper: licensing.NewGatekeeper(store, store),
		Deployer:   deployer,
		Templates:  template.NewCatalog(dir, time.Minute),
		Tokens:     util.NewTokenIssuer("test-secret", time.Hour),
		Logs:       service.NewOperationLogService(db),
		Stats:      service.NewStatisticsService(db),
	}

	env := &testEnv{app: NewApp(h), h: h, deployer: deployer, acme: acme}

	var login struct {
		Token string `json:"token"`
	}
	resp := env.do(t, http.MethodPost, "/api/v1/users/login", LoginInput{Username: "admin", Password: adminPassword}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &login)
	env.token = login.Token
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) admin(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	return e.do(t, method, path, body, map[string]string{"Authorization": "Bearer " + e.token})
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/nf", func(c *fiber.Ctx) error { return apperr.NotFound("tenant not found", nil) })
	app.Get("/boom", func(c *fiber.Ctx) error { return io.ErrUnexpectedEOF })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nf", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	require.Equal(t, "tenant not found", body["error"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	decode(t, resp, &body)
	require.Equal(t, "internal server error", body["error"])
}
