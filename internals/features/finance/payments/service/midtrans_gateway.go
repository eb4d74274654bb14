// file: internals/features/finance/payments/service/midtrans_gateway.go
package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	model "schoolfee_backend/internals/features/finance/payments/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

/* =========================================================
   Midtrans client
========================================================= */

// SnapClient is the part of snap.Client used here.
type SnapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// NewSnapClient builds a Snap client for sandbox or production.
func NewSnapClient(serverKey string, production bool) *snap.Client {
	var c snap.Client
	if production {
		c.New(serverKey, midtrans.Production)
	} else {
		c.New(serverKey, midtrans.Sandbox)
	}
	return &c
}

var ErrInvalidSignature = errors.New("invalid midtrans signature")

/* =========================================================
   Gateway
========================================================= */

type GatewayService struct {
	store     store.Store
	recorder  *PaymentRecorder
	snap      SnapClient
	serverKey string
	ttl       time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewGatewayService(st store.Store, recorder *PaymentRecorder, client SnapClient, serverKey string, ttl time.Duration, log *zap.Logger) *GatewayService {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &GatewayService{
		store:     st,
		recorder:  recorder,
		snap:      client,
		serverKey: serverKey,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

type CheckoutInput struct {
	StudentID    uuid.UUID
	FeeType      string
	Amount       decimal.Decimal
	AcademicYear string
}

// NewOrderID formats FEE-YYYYMMDD-HHMMSS-XXXXXXXX.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("FEE-%s-%s", now.Format("20060102-150405"), strings.ToUpper(uuid.NewString()[:8]))
}

// StartCheckout stores a pending checkout and asks Snap for a payment page.
func (g *GatewayService) StartCheckout(ctx context.Context, institutionID uuid.UUID, in CheckoutInput) (*model.PaymentCheckout, error) {
	if !in.Amount.IsPositive() {
		return nil, apperr.InvalidAmount(in.Amount)
	}
	if !in.Amount.Equal(in.Amount.Truncate(0)) {
		return nil, apperr.Field("amount", "gateway amounts must be whole units")
	}
	feeType := feeModel.NormalizeName(in.FeeType)
	if feeType == "" {
		return nil, apperr.Field("fee_type", "required")
	}
	if in.AcademicYear != "" && !feeModel.ValidAcademicYear(in.AcademicYear) {
		return nil, apperr.Field("academic_year", "must be YY-YY with consecutive years, e.g. 24-25")
	}
	st, err := g.store.Students().Get(ctx, institutionID, in.StudentID)
	if err != nil {
		return nil, err
	}

	now := g.now()
	m := &model.PaymentCheckout{
		PaymentCheckoutID:            uuid.New(),
		PaymentCheckoutOrderID:       NewOrderID(now),
		PaymentCheckoutInstitutionID: institutionID,
		PaymentCheckoutStudentID:     st.StudentID,
		PaymentCheckoutFeeType:       feeType,
		PaymentCheckoutAmount:        in.Amount,
		PaymentCheckoutAcademicYear:  in.AcademicYear,
		PaymentCheckoutStatus:        model.CheckoutPending,
		PaymentCheckoutExpiresAt:     now.Add(g.ttl),
	}
	if err := g.store.Checkouts().Create(ctx, m); err != nil {
		return nil, err
	}

	gross := in.Amount.IntPart()
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  m.PaymentCheckoutOrderID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: st.StudentFname,
			LName: st.StudentLname,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:       m.PaymentCheckoutOrderID,
			Price:    gross,
			Qty:      1,
			Name:     truncate(feeType+" "+st.StudentFeeID, 50),
			Category: feeModel.CategoryOfFeeType(feeType).Label(),
		}},
		Expiry: &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: int64(g.ttl / time.Minute),
		},
		CustomField1: st.StudentFeeID,
	}

	resp, merr := g.snap.CreateTransaction(req)
	if merr != nil {
		m.PaymentCheckoutStatus = model.CheckoutFailed
		m.PaymentCheckoutGatewayRaw = merr.Error()
		if err := g.store.Checkouts().Save(ctx, m); err != nil {
			g.log.Error("save failed checkout", zap.String("order_id", m.PaymentCheckoutOrderID), zap.Error(err))
		}
		return nil, apperr.Storage("midtrans create transaction", merr)
	}

	m.PaymentCheckoutSnapToken = resp.Token
	m.PaymentCheckoutRedirectURL = resp.RedirectURL
	if err := g.store.Checkouts().Save(ctx, m); err != nil {
		return nil, err
	}
	g.log.Info("checkout started",
		zap.String("order_id", m.PaymentCheckoutOrderID),
		zap.String("student_id", st.StudentID.String()),
		zap.String("amount", in.Amount.String()),
	)
	return m, nil
}

func (g *GatewayService) ListCheckouts(ctx context.Context, institutionID, studentID uuid.UUID) ([]*model.PaymentCheckout, error) {
	return g.store.Checkouts().ListByStudent(ctx, institutionID, studentID)
}

/* =========================================================
   Notifications
========================================================= */

// Notification is the Midtrans HTTP notification body.
type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

type NotificationResult struct {
	OrderID   string               `json:"order_id"`
	Status    model.CheckoutStatus `json:"status,omitempty"`
	ReceiptID string               `json:"receipt_id,omitempty"`
	Ignored   string               `json:"ignored,omitempty"`
}

// Signature is SHA512(order_id + status_code + gross_amount + server key), hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// MapMidtransStatus returns the checkout status a notification moves to;
// "" means no change.
func MapMidtransStatus(transactionStatus, fraudStatus string) model.CheckoutStatus {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "accept", "":
			return model.CheckoutSettled
		case "challenge":
			return model.CheckoutPending
		}
		return model.CheckoutFailed
	case "settlement":
		return model.CheckoutSettled
	case "pending":
		return model.CheckoutPending
	case "deny", "failure", "cancel":
		return model.CheckoutFailed
	case "expire":
		return model.CheckoutExpired
	}
	return ""
}

// HandleNotification applies one Midtrans notification. Settlements are
// recorded with the order id as idempotency key, so redelivery is harmless.
func (g *GatewayService) HandleNotification(ctx context.Context, n Notification) (*NotificationResult, error) {
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, g.serverKey)
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return nil, ErrInvalidSignature
	}
	res := &NotificationResult{OrderID: n.OrderID}

	co, err := g.store.Checkouts().GetByOrderID(ctx, n.OrderID)
	if apperr.IsNotFound(err) {
		g.log.Warn("notification for unknown order", zap.String("order_id", n.OrderID))
		res.Ignored = "unknown order"
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	next := MapMidtransStatus(n.TransactionStatus, n.FraudStatus)
	if next == "" || next == model.CheckoutPending {
		res.Status = co.PaymentCheckoutStatus
		res.Ignored = "no status change"
		return res, nil
	}

	gross, err := decimal.NewFromString(strings.TrimSpace(n.GrossAmount))
	if err != nil || !gross.Equal(co.PaymentCheckoutAmount) {
		return nil, apperr.Field("gross_amount", "does not match the checkout amount")
	}

	var receiptID *string
	if next == model.CheckoutSettled {
		if co.PaymentCheckoutStatus == model.CheckoutExpired || co.PaymentCheckoutStatus == model.CheckoutFailed {
			g.log.Warn("settlement after checkout closed", zap.String("order_id", n.OrderID), zap.String("status", string(co.PaymentCheckoutStatus)))
		}
		t, err := g.recorder.RecordPayment(ctx, co.PaymentCheckoutInstitutionID, RecordInput{
			StudentID:      co.PaymentCheckoutStudentID,
			FeeType:        co.PaymentCheckoutFeeType,
			Amount:         co.PaymentCheckoutAmount,
			PaymentMode:    "gateway",
			Account:        "midtrans",
			Remark:         strings.TrimSpace(n.PaymentType + " " + n.TransactionID),
			AcademicYear:   co.PaymentCheckoutAcademicYear,
			IdempotencyKey: co.PaymentCheckoutOrderID,
			RecordedBy:     "midtrans",
		})
		if err != nil {
			return nil, err
		}
		receiptID = &t.FeeTransactionReceiptID
	}

	raw, _ := json.Marshal(n)
	err = g.store.WithinTx(ctx, func(tx store.Repos) error {
		m, err := tx.Checkouts().GetByOrderIDForUpdate(ctx, n.OrderID)
		if err != nil {
			return err
		}
		// a settled checkout never moves back
		if m.PaymentCheckoutStatus == model.CheckoutSettled {
			res.Status = m.PaymentCheckoutStatus
			res.ReceiptID = deref(m.PaymentCheckoutReceiptID)
			return nil
		}
		if next != model.CheckoutSettled && m.PaymentCheckoutStatus.Final() {
			res.Status = m.PaymentCheckoutStatus
			return nil
		}
		m.PaymentCheckoutStatus = next
		m.PaymentCheckoutGatewayRaw = string(raw)
		if receiptID != nil {
			m.PaymentCheckoutReceiptID = receiptID
		}
		res.Status = next
		res.ReceiptID = deref(m.PaymentCheckoutReceiptID)
		return tx.Checkouts().Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	g.log.Info("midtrans notification applied",
		zap.String("order_id", n.OrderID),
		zap.String("transaction_status", n.TransactionStatus),
		zap.String("status", string(res.Status)),
	)
	return res, nil
}

// ExpirePending closes pending checkouts whose window has passed.
func (g *GatewayService) ExpirePending(ctx context.Context) (int64, error) {
	return g.store.Checkouts().ExpirePending(ctx, g.now())
}

/* =========================================================
   Utils
========================================================= */

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
