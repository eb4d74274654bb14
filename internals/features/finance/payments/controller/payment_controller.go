// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"errors"
	"strings"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	dto "schoolfee_backend/internals/features/finance/payments/dto"
	"schoolfee_backend/internals/features/finance/payments/service"
	"schoolfee_backend/internals/features/finance/store"
	helper "schoolfee_backend/internals/helpers"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PaymentController struct {
	Recorder *service.PaymentRecorder
	Gateway  *service.GatewayService // nil when Midtrans is not configured
}

func NewPaymentController(rec *service.PaymentRecorder, gw *service.GatewayService) *PaymentController {
	return &PaymentController{Recorder: rec, Gateway: gw}
}

/* =========================
   POST /:institution_id/payments
========================= */

func (h *PaymentController) Record(c *fiber.Ctx) error {
	instID, who, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = strings.TrimSpace(c.Get("Idempotency-Key"))
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	t, err := h.Recorder.RecordPayment(c.UserContext(), instID, req.ToInput(who.UID))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "payment recorded", dto.FromTransaction(t))
}

/* =========================
   GET /:institution_id/payments
   ?student_id=&category=&academic_year=&from=2024-06-01&to=2024-06-30&page=&per_page=
========================= */

func (h *PaymentController) List(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 25, 200)
	f := store.TransactionFilter{
		InstitutionID: instID,
		Category:      feeModel.FeeCategory(strings.ToLower(strings.TrimSpace(c.Query("category")))),
		AcademicYear:  strings.TrimSpace(c.Query("academic_year")),
		Page:          store.Page{Limit: p.Limit, Offset: p.Offset},
	}
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "student_id is not a valid UUID")
		}
		f.StudentID = &id
	}
	if f.From, err = dateQuery(c, "from", false); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if f.To, err = dateQuery(c, "to", true); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	rows, total, err := h.Recorder.ListTransactions(c.UserContext(), f)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "", dto.FromTransactions(rows), helper.BuildPagination(total, p, len(rows)))
}

// GET /:institution_id/payments/:receipt_id
func (h *PaymentController) Get(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	t, err := h.Recorder.GetTransaction(c.UserContext(), instID, c.Params("receipt_id"))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromTransaction(t))
}

/* =========================
   Gateway
========================= */

// POST /:institution_id/checkouts
func (h *PaymentController) StartCheckout(c *fiber.Ctx) error {
	if h.Gateway == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "payment gateway is not configured")
	}
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.StartCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	co, err := h.Gateway.StartCheckout(c.UserContext(), instID, req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "checkout started", co)
}

// GET /:institution_id/checkouts?student_id=
func (h *PaymentController) ListCheckouts(c *fiber.Ctx) error {
	if h.Gateway == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "payment gateway is not configured")
	}
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	studentID, err := uuid.Parse(strings.TrimSpace(c.Query("student_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student_id is required")
	}
	rows, err := h.Gateway.ListCheckouts(c.UserContext(), instID, studentID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", rows)
}

// POST /payments/midtrans/notification (public; authenticated by signature)
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	if h.Gateway == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "payment gateway is not configured")
	}
	var n service.Notification
	if err := c.BodyParser(&n); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	res, err := h.Gateway.HandleNotification(c.UserContext(), n)
	if errors.Is(err, service.ErrInvalidSignature) {
		return helper.JsonError(c, fiber.StatusUnauthorized, "invalid signature")
	}
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", res)
}

/* =========================
   Utils
========================= */

// dateQuery reads YYYY-MM-DD; endOfDay moves "to" to the last instant of that day.
func dateQuery(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New(key + " must be YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
