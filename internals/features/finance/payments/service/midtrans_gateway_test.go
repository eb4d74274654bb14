package service

import (
	"context"
	"testing"
	"time"

	model "schoolfee_backend/internals/features/finance/payments/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverKey = "SB-Mid-server-test"

type fakeSnap struct {
	reqs []*snap.Request
	err  *midtrans.Error
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &snap.Response{Token: "tok-" + req.TransactionDetails.OrderID, RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/x"}, nil
}

func newGateway(t *testing.T) (*fixture, *GatewayService, *fakeSnap) {
	f := newFixture(t)
	fs := &fakeSnap{}
	return f, NewGatewayService(f.st, f.rec, fs, serverKey, 30*time.Minute, nil), fs
}

func notify(orderID, status, gross string) Notification {
	return Notification{
		OrderID:           orderID,
		StatusCode:        "200",
		GrossAmount:       gross,
		TransactionStatus: status,
		PaymentType:       "bank_transfer",
		TransactionID:     "mid-1",
		SignatureKey:      Signature(orderID, "200", gross, serverKey),
	}
}

func TestStartCheckout(t *testing.T) {
	f, g, fs := newGateway(t)
	co, err := g.StartCheckout(context.Background(), f.inst, CheckoutInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(3000)})
	require.NoError(t, err)

	assert.Regexp(t, `^FEE-\d{8}-\d{6}-[0-9A-F]{8}$`, co.PaymentCheckoutOrderID)
	assert.Equal(t, model.CheckoutPending, co.PaymentCheckoutStatus)
	assert.Equal(t, "tok-"+co.PaymentCheckoutOrderID, co.PaymentCheckoutSnapToken)
	require.Len(t, fs.reqs, 1)
	assert.Equal(t, int64(3000), fs.reqs[0].TransactionDetails.GrossAmt)
	assert.Equal(t, int64(30), fs.reqs[0].Expiry.Duration)

	_, err = g.StartCheckout(context.Background(), f.inst, CheckoutInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: decimalOf(t, "10.50")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStartCheckoutGatewayFailure(t *testing.T) {
	f, g, fs := newGateway(t)
	fs.err = &midtrans.Error{Message: "unauthorized", StatusCode: 401}

	_, err := g.StartCheckout(context.Background(), f.inst, CheckoutInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(100)})
	assert.ErrorIs(t, err, apperr.ErrStorage)

	rows, err := g.ListCheckouts(context.Background(), f.inst, f.student.StudentID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.CheckoutFailed, rows[0].PaymentCheckoutStatus)
}

func TestSettlementRecordsPaymentOnce(t *testing.T) {
	f, g, _ := newGateway(t)
	ctx := context.Background()
	co, err := g.StartCheckout(ctx, f.inst, CheckoutInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(3000)})
	require.NoError(t, err)

	n := notify(co.PaymentCheckoutOrderID, "settlement", "3000.00")
	res, err := g.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutSettled, res.Status)
	require.NotEmpty(t, res.ReceiptID)

	again, err := g.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, res.ReceiptID, again.ReceiptID)

	tx, err := f.rec.GetTransaction(ctx, f.inst, res.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, "gateway", tx.FeeTransactionPaymentMode)
	assert.Equal(t, "midtrans", tx.FeeTransactionAccount)
	assert.Equal(t, co.PaymentCheckoutOrderID, *tx.FeeTransactionIdempotencyKey)

	_, total, err := f.rec.ListTransactions(ctx, store.TransactionFilter{InstitutionID: f.inst})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// a late failure does not reopen a settled checkout
	res, err = g.HandleNotification(ctx, notify(co.PaymentCheckoutOrderID, "expire", "3000.00"))
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutSettled, res.Status)
}

func TestNotificationGuards(t *testing.T) {
	f, g, _ := newGateway(t)
	ctx := context.Background()
	co, err := g.StartCheckout(ctx, f.inst, CheckoutInput{StudentID: f.student.StudentID, FeeType: "BusFee", Amount: dec(500)})
	require.NoError(t, err)

	bad := notify(co.PaymentCheckoutOrderID, "settlement", "500.00")
	bad.SignatureKey = Signature(co.PaymentCheckoutOrderID, "200", "500.00", "other-key")
	_, err = g.HandleNotification(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = g.HandleNotification(ctx, notify(co.PaymentCheckoutOrderID, "settlement", "50000.00"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	res, err := g.HandleNotification(ctx, notify("FEE-unknown", "settlement", "1.00"))
	require.NoError(t, err)
	assert.Equal(t, "unknown order", res.Ignored)

	res, err = g.HandleNotification(ctx, notify(co.PaymentCheckoutOrderID, "deny", "500.00"))
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutFailed, res.Status)
}

func TestMapMidtransStatus(t *testing.T) {
	cases := []struct {
		status, fraud string
		want          model.CheckoutStatus
	}{
		{"capture", "accept", model.CheckoutSettled},
		{"capture", "challenge", model.CheckoutPending},
		{"capture", "deny", model.CheckoutFailed},
		{"settlement", "", model.CheckoutSettled},
		{"pending", "", model.CheckoutPending},
		{"deny", "", model.CheckoutFailed},
		{"cancel", "", model.CheckoutFailed},
		{"failure", "", model.CheckoutFailed},
		{"expire", "", model.CheckoutExpired},
		{"refund", "", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MapMidtransStatus(c.status, c.fraud), c.status+"/"+c.fraud)
	}
}

func TestExpirePendingAndReaperSchedule(t *testing.T) {
	f, g, _ := newGateway(t)
	ctx := context.Background()
	_, err := g.StartCheckout(ctx, f.inst, CheckoutInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(100)})
	require.NoError(t, err)

	n, err := g.ExpirePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	later := time.Now().Add(time.Hour)
	g.now = func() time.Time { return later }
	n, err = g.ExpirePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = StartCheckoutReaper("not a schedule", g, nil)
	assert.Error(t, err)

	c, err := StartCheckoutReaper("@every 5m", g, nil)
	require.NoError(t, err)
	<-c.Stop().Done()
}
