package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newApp(seen *helperAuth.Identity) *fiber.App {
	app := fiber.New()
	app.Use(AuthJWT(AuthJWTOpts{Secret: secret}))
	app.Get("/", func(c *fiber.Ctx) error {
		id, err := helperAuth.GetIdentity(c)
		if err != nil {
			return err
		}
		*seen = id
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthJWTHydratesIdentity(t *testing.T) {
	inst := uuid.New()
	var seen helperAuth.Identity
	tok := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub":            "user-1",
		"role":           "Admin",
		"institution_id": inst.String(),
		"privilege":      "both",
		"exp":            time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := newApp(&seen).Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "user-1", seen.UID)
	assert.Equal(t, "admin", seen.Role)
	assert.Equal(t, inst, seen.InstitutionID)
	assert.True(t, seen.CanMutate())
}

func TestAuthJWTRejects(t *testing.T) {
	var seen helperAuth.Identity
	app := newApp(&seen)

	cases := map[string]string{
		"missing":  "",
		"garbage":  "Bearer not-a-jwt",
		"wrongkey": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u", "institution_id": uuid.NewString()}),
		"expired": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
			"sub": "u", "institution_id": uuid.NewString(), "exp": time.Now().Add(-time.Minute).Unix(),
		}),
		"nosub": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"institution_id": uuid.NewString()}),
	}
	for name, header := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestAuthJWTRequiresInstitutionUnlessOwner(t *testing.T) {
	var seen helperAuth.Identity
	app := newApp(&seen)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u", "role": "admin"}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "root", "role": "owner"}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.True(t, seen.IsOwner())
}
