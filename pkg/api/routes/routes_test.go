package routes

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()

	group := app.Group("/core")
	group.Get("version", APIVersion)
	NotificationsRouter(group.Group("/notifications"))

	return app
}

func TestAPIVersion(t *testing.T) {
	app := newTestApp()

	response, err := app.Test(httptest.NewRequest("GET", "/core/version", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)
}

func TestBroadcastNotificationRequiresTitleAndMessage(t *testing.T) {
	app := newTestApp()

	request := httptest.NewRequest("POST", "/core/notifications/broadcast", strings.NewReader(`{"title":"no message"}`))
	request.Header.Set("Content-Type", "application/json")

	response, err := app.Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}
