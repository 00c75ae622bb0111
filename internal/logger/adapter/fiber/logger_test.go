package fiber_test

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyconnect/supplyconnect/internal/logger"
	adapter "github.com/supplyconnect/supplyconnect/internal/logger/adapter/fiber"
)

type accessLine struct {
	IP       string `json:"IP"`
	Status   int    `json:"status"`
	URI      string `json:"URI"`
	Method   string `json:"method"`
	Host     string `json:"host"`
	Tenant   string `json:"tenant"`
	Username string `json:"username"`
}

func newApp(cfg adapter.Config) *fiber.App {
	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))

	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("hello test")
	})

	app.Get("/checkalive", func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})

	app.Post("/admin/sync/groups", func(ctx *fiber.Ctx) error {
		ctx.Locals(adapter.TenantLocal, "BR")
		ctx.Locals(adapter.UsernameLocal, "admin-br")

		return ctx.SendStatus(fiber.StatusAccepted)
	})

	return app
}

func fileConfig(dir string) logger.Log {
	return logger.Log{
		DisableCheckAlive: true,
		File: logger.LogFile{
			Enabled: true,
			Path:    dir,
			Access:  logger.Rotation{Name: "access.log", MaxSize: 1},
		},
	}
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name     string
		method   string
		target   string
		expected *accessLine
	}{
		{
			name:     "get",
			method:   fiber.MethodGet,
			target:   "/",
			expected: &accessLine{Status: fiber.StatusOK, URI: "/", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:     "query string kept",
			method:   fiber.MethodGet,
			target:   "/?tenant=BR",
			expected: &accessLine{Status: fiber.StatusOK, URI: "/?tenant=BR", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:     "not found with double slash",
			method:   fiber.MethodGet,
			target:   "/no_path//x",
			expected: &accessLine{Status: fiber.StatusNotFound, URI: "/no_path//x", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:   "session fields",
			method: fiber.MethodPost,
			target: "/admin/sync/groups",
			expected: &accessLine{
				Status: fiber.StatusAccepted, URI: "/admin/sync/groups", Method: fiber.MethodPost, Host: "example.com",
				Tenant: "BR", Username: "admin-br",
			},
		},
		{
			name:   "checkalive not logged",
			method: fiber.MethodGet,
			target: "/checkalive",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			app := newApp(adapter.Config{Config: fileConfig(dir), CheckAliveURI: "/checkalive"})

			_, err := app.Test(httptest.NewRequest(tc.method, tc.target, nil), -1)
			require.NoError(t, err)

			out, err := os.ReadFile(filepath.Join(dir, "access.log"))

			if tc.expected == nil {
				if err == nil {
					assert.Empty(t, strings.TrimSpace(string(out)))
				}

				return
			}

			require.NoError(t, err)

			var line accessLine
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(out))), &line))

			assert.Equal(t, tc.expected.Status, line.Status)
			assert.Equal(t, tc.expected.URI, line.URI)
			assert.Equal(t, tc.expected.Method, line.Method)
			assert.Equal(t, tc.expected.Host, line.Host)
			assert.Equal(t, tc.expected.Tenant, line.Tenant)
			assert.Equal(t, tc.expected.Username, line.Username)
		})
	}
}

func TestNew_Next(t *testing.T) {
	dir := t.TempDir()
	app := newApp(adapter.Config{
		Config: fileConfig(dir),
		Next:   func(*fiber.Ctx) bool { return true },
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, err = os.Stat(filepath.Join(dir, "access.log"))
	assert.True(t, os.IsNotExist(err))
}
