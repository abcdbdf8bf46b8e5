package workflow

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-paygate/internal/config"
	"go-paygate/pkg/utils"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	utils.SetSecret("inbox-route-secret")

	env := newTestEnv(t, singleApproverConfig(), false)
	svc := NewService(env.engine, &memRuleStore{})

	app := fiber.New()
	NewApi(NewController(svc), &config.Config{}).Setup(app)
	return app
}

func TestRequestInboxRequiresReadPermission(t *testing.T) {
	app := newTestApp(t)

	viewer, err := utils.GenerateToken("eve", "", "", "viewer", []string{"transactions:read"}, false)
	require.NoError(t, err)
	reader, err := utils.GenerateToken("bob", "", "", checkerRole, []string{RequestReadPermission}, false)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/api/workflow/requests", nil)
	req.Header.Set("Authorization", "Bearer "+viewer)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/api/workflow/requests", nil)
	req.Header.Set("Authorization", "Bearer "+reader)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequestInboxRequiresAuthentication(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/workflow/requests", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
