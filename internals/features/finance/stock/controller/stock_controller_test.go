package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	"schoolfee_backend/internals/features/finance/stock/service"
	studentModel "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/store/memstore"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/bwmarrin/snowflake"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	app     *fiber.App
	base    string
	student uuid.UUID
	who     *helperAuth.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	inst := &instModel.Institution{InstitutionName: "Green Valley School"}
	require.NoError(t, st.Institutions().Create(ctx, inst))
	s := &studentModel.Student{
		StudentID: uuid.New(), StudentInstitutionID: inst.InstitutionID, StudentFeeID: "GV-1", StudentFname: "Asha",
		StudentClass: "Nursery", StudentAcademicYear: "24-25", StudentType: "DS", StudentStatus: studentModel.StudentActive,
	}
	require.NoError(t, st.Students().Create(ctx, s))
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	e := &env{base: "/" + inst.InstitutionID.String() + "/stock", student: s.StudentID, who: &helperAuth.Identity{
		UID: "clerk-1", Role: "admin", InstitutionID: inst.InstitutionID, Privilege: helperAuth.PrivilegeBoth,
	}}
	e.app = fiber.New()
	e.app.Use(func(c *fiber.Ctx) error {
		helperAuth.SetIdentity(c, *e.who)
		return c.Next()
	})
	ctl := NewStockController(service.NewStockService(st, node, "SR", nil))
	e.app.Post("/:institution_id/stock/items", ctl.CreateItem)
	e.app.Get("/:institution_id/stock/items", ctl.ListItems)
	e.app.Patch("/:institution_id/stock/items/:item_id", ctl.UpdateItem)
	e.app.Post("/:institution_id/stock/sales", ctl.RecordSale)
	e.app.Get("/:institution_id/stock/sales/:receipt_id", ctl.GetSale)
	return e
}

func (e *env) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, e.base+path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestStockItemAndSaleOverHTTP(t *testing.T) {
	e := newEnv(t)

	code, body := e.do(t, "POST", "/items", `{"item_name":"Notebook","quantity":5,"selling_price":"40"}`)
	require.Equal(t, 201, code, body)
	itemID := body["data"].(map[string]any)["stock_item_id"].(string)

	code, _ = e.do(t, "POST", "/items", `{"item_name":"Notebook","quantity":1}`)
	assert.Equal(t, 409, code)

	code, body = e.do(t, "POST", "/sales", `{"student_id":"`+e.student.String()+`","payment_mode":"cash","items":[{"item_name":"Notebook","quantity":2}]}`)
	require.Equal(t, 201, code, body)
	sale := body["data"].(map[string]any)
	assert.Equal(t, "80", sale["total"])
	receipt := sale["receipt_id"].(string)
	assert.True(t, strings.HasPrefix(receipt, "SR-"))

	code, body = e.do(t, "PATCH", "/items/"+itemID, `{"selling_price":"99"}`)
	require.Equal(t, 200, code, body)

	code, body = e.do(t, "GET", "/sales/"+receipt, "")
	require.Equal(t, 200, code)
	lines := body["data"].(map[string]any)["items"].([]any)
	assert.Equal(t, "40", lines[0].(map[string]any)["price"])

	code, body = e.do(t, "POST", "/sales", `{"student_id":"`+e.student.String()+`","items":[{"item_name":"Notebook","quantity":9}]}`)
	assert.Equal(t, 422, code, body)

	code, body = e.do(t, "GET", "/items", "")
	require.Equal(t, 200, code)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 3, items[0].(map[string]any)["quantity"])
}

func TestStockWritesNeedBothPrivilege(t *testing.T) {
	e := newEnv(t)
	e.who.Privilege = helperAuth.PrivilegeView

	code, _ := e.do(t, "POST", "/items", `{"item_name":"Notebook","quantity":5}`)
	assert.Equal(t, 403, code)
	code, _ = e.do(t, "GET", "/items", "")
	assert.Equal(t, 200, code)
}
