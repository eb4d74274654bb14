package helper

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"schoolfee_backend/internals/helpers/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appReturning(err error) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return JsonAppError(c, err) })
	return app
}

func decode(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestJsonAppErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.NotFound("student", "x"), 404, "STUDENT_NOT_FOUND"},
		{apperr.NotConfigured("no fee for %s", "Nursery"), 404, "FEE_NOT_CONFIGURED"},
		{apperr.Duplicate("class exists"), 409, "DUPLICATE"},
		{apperr.Conflict(errors.New("40001")), 409, "CONFLICT"},
		{apperr.Forbidden("nope"), 403, "FORBIDDEN"},
		{apperr.Storage("save", errors.New("disk")), 500, "INTERNAL_ERROR"},
		{errors.New("plain"), 500, "INTERNAL_ERROR"},
		{fiber.NewError(fiber.StatusBadRequest, "bad"), 400, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		resp, err := appReturning(tc.err).Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		body := decode(t, resp.Body)
		assert.False(t, body.Success)
		assert.Equal(t, tc.code, body.ErrorCode)
	}
}

func TestJsonAppErrorValidationFields(t *testing.T) {
	resp, err := appReturning(apperr.Field("fee_amounts.Tuition", "must be a number")).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, []string{"must be a number"}, body.Errors["fee_amounts.Tuition"])
}

func TestStorageErrorsHideDetails(t *testing.T) {
	resp, err := appReturning(apperr.Storage("save", errors.New("password=secret"))).Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body := decode(t, resp.Body)
	assert.Equal(t, "internal error", body.Message)
}

func TestResolvePaging(t *testing.T) {
	app := fiber.New()
	var got Paging
	app.Get("/", func(c *fiber.Ctx) error {
		got = ResolvePaging(c, 20, 100)
		return nil
	})
	_, err := app.Test(httptest.NewRequest("GET", "/?page=3&limit=500", nil))
	require.NoError(t, err)
	assert.Equal(t, Paging{Page: 3, PerPage: 100, Offset: 200, Limit: 100}, got)

	p := BuildPagination(201, got, 1)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Name string `validate:"required"`
		Qty  int    `validate:"gte=1"`
	}
	errs := ValidateStruct(req{Qty: 0})
	assert.Equal(t, []string{"required"}, errs["Name"])
	assert.Equal(t, []string{"gte"}, errs["Qty"])
	assert.Nil(t, ValidateStruct(req{Name: "x", Qty: 1}))
}
