package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	"schoolfee_backend/internals/features/finance/payments/service"
	studentModel "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/store/memstore"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/bwmarrin/snowflake"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okSnap struct{}

func (okSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	return &snap.Response{Token: "tok", RedirectURL: "https://pay.example/x"}, nil
}

type env struct {
	app     *fiber.App
	inst    uuid.UUID
	student uuid.UUID
	who     *helperAuth.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	inst := &instModel.Institution{InstitutionName: "Green Valley School"}
	require.NoError(t, st.Institutions().Create(ctx, inst))
	require.NoError(t, st.FeeStructures().Create(ctx, feeModel.NewFeeStructure(inst.InstitutionID, "24-25", []feeModel.FeeClass{{
		Name: "Nursery",
		StudentTypes: []feeModel.StudentTypeFee{
			{Name: "DS", FeeAmounts: map[string]decimal.Decimal{"Tuition": decimal.NewFromInt(5000)}},
		},
	}})))
	s := &studentModel.Student{
		StudentID: uuid.New(), StudentInstitutionID: inst.InstitutionID, StudentFeeID: "GV-1", StudentFname: "Asha",
		StudentClass: "Nursery", StudentAcademicYear: "24-25", StudentType: "DS", StudentStatus: studentModel.StudentActive,
	}
	require.NoError(t, st.Students().Create(ctx, s))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	rec := service.NewPaymentRecorder(st, node, "", nil)
	gw := service.NewGatewayService(st, rec, okSnap{}, "server-key", time.Hour, nil)

	e := &env{inst: inst.InstitutionID, student: s.StudentID, who: &helperAuth.Identity{
		UID: "cashier-1", Role: "admin", InstitutionID: inst.InstitutionID, Privilege: helperAuth.PrivilegeBoth,
	}}
	ctl := NewPaymentController(rec, gw)
	e.app = fiber.New()
	e.app.Post("/payments/midtrans/notification", ctl.MidtransWebhook)
	e.app.Use(func(c *fiber.Ctx) error {
		helperAuth.SetIdentity(c, *e.who)
		return c.Next()
	})
	e.app.Post("/:institution_id/payments", ctl.Record)
	e.app.Get("/:institution_id/payments", ctl.List)
	e.app.Get("/:institution_id/payments/:receipt_id", ctl.Get)
	e.app.Post("/:institution_id/checkouts", ctl.StartCheckout)
	return e
}

func (e *env) do(t *testing.T, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestRecordAndListPayments(t *testing.T) {
	e := newEnv(t)
	base := "/" + e.inst.String() + "/payments"
	body := `{"student_id":"` + e.student.String() + `","fee_type":"Tuition","amount":"1500.50","payment_mode":"cash"}`

	code, resp := e.do(t, "POST", base, body, "Idempotency-Key", "desk-1")
	require.Equal(t, fiber.StatusCreated, code, resp)
	data := resp["data"].(map[string]any)
	assert.Equal(t, "cashier-1", data["recorded_by"])
	snap := data["historical_snapshot"].(map[string]any)
	assert.Equal(t, "5000", snap["initial_fee"])
	assert.Equal(t, "3499.5", snap["remaining_after"])
	receipt := data["receipt_id"].(string)

	code, _ = e.do(t, "POST", base, body, "Idempotency-Key", "desk-1")
	require.Equal(t, fiber.StatusCreated, code)

	code, resp = e.do(t, "GET", base+"?student_id="+e.student.String()+"&category=school", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, resp["data"], 1)

	code, _ = e.do(t, "GET", base+"/"+receipt, "")
	assert.Equal(t, fiber.StatusOK, code)

	code, resp = e.do(t, "POST", base, `{"student_id":"`+e.student.String()+`","fee_type":"Tuition","amount":0}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_AMOUNT", resp["error_code"])

	code, _ = e.do(t, "GET", base+"?from=01-06-2024", "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	e.who.Privilege = helperAuth.PrivilegeView
	code, _ = e.do(t, "POST", base, body)
	assert.Equal(t, fiber.StatusForbidden, code)
}

func TestMidtransWebhookHTTP(t *testing.T) {
	e := newEnv(t)
	code, resp := e.do(t, "POST", "/"+e.inst.String()+"/checkouts", `{"student_id":"`+e.student.String()+`","fee_type":"Tuition","amount":2000}`)
	require.Equal(t, fiber.StatusCreated, code, resp)
	order := resp["data"].(map[string]any)["order_id"].(string)

	payload := func(sig string) string {
		return `{"order_id":"` + order + `","status_code":"200","gross_amount":"2000.00","transaction_status":"settlement","signature_key":"` + sig + `"}`
	}
	code, _ = e.do(t, "POST", "/payments/midtrans/notification", payload("deadbeef"))
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, resp = e.do(t, "POST", "/payments/midtrans/notification", payload(service.Signature(order, "200", "2000.00", "server-key")))
	require.Equal(t, fiber.StatusOK, code, resp)
	assert.Equal(t, "settled", resp["data"].(map[string]any)["status"])
}
