package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	model "schoolfee_backend/internals/features/finance/payments/model"
	studentModel "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/features/finance/store/memstore"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	st      *memstore.Store
	inst    uuid.UUID
	student *studentModel.Student
	rec     *PaymentRecorder
}

// newFixture seeds Nursery / 24-25 and one DSS student.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	inst := &instModel.Institution{InstitutionName: "Green Valley School"}
	require.NoError(t, st.Institutions().Create(ctx, inst))
	require.NoError(t, st.FeeStructures().Create(ctx, feeModel.NewFeeStructure(inst.InstitutionID, "24-25", []feeModel.FeeClass{{
		Name: "Nursery",
		StudentTypes: []feeModel.StudentTypeFee{
			{Name: "DS", FeeAmounts: map[string]decimal.Decimal{"Admission": dec(1200), "Tuition": dec(10000), "BusFee": dec(3000)}},
			{Name: "DSS", FeeAmounts: map[string]decimal.Decimal{"Admission": dec(1200), "Tuition": dec(5000), "BusFee": dec(3000)}},
		},
	}})))

	s := &studentModel.Student{
		StudentID:            uuid.New(),
		StudentInstitutionID: inst.InstitutionID,
		StudentFeeID:         "GV-001",
		StudentFname:         "Asha",
		StudentClass:         "Nursery",
		StudentAcademicYear:  "24-25",
		StudentType:          "DSS",
		StudentStatus:        studentModel.StudentActive,
	}
	s.SetTotals(dec(9200), dec(5000), true)
	require.NoError(t, st.Students().Create(ctx, s))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return &fixture{st: st, inst: inst.InstitutionID, student: s, rec: NewPaymentRecorder(st, node, "FR", nil)}
}

func (f *fixture) pay(t *testing.T, feeType string, amount int64) *model.FeeTransaction {
	t.Helper()
	tx, err := f.rec.RecordPayment(context.Background(), f.inst, RecordInput{
		StudentID: f.student.StudentID, FeeType: feeType, Amount: dec(amount), PaymentMode: "cash",
	})
	require.NoError(t, err)
	return tx
}

func TestRecordPaymentScenarioDSS(t *testing.T) {
	f := newFixture(t)

	first := f.pay(t, "SchoolFee", 3000)
	snap := first.HistoricalSnapshot
	assert.True(t, snap.InitialFee.Equal(dec(6200)), snap.InitialFee.String())
	assert.True(t, snap.ApplicableDiscount.Equal(dec(5000)))
	assert.True(t, snap.PreviousPayments.IsZero())
	assert.True(t, snap.RemainingBefore.Equal(dec(1200)))
	assert.True(t, snap.RemainingAfter.Equal(dec(-1800)))
	assert.Equal(t, feeModel.CategorySchool, first.FeeTransactionCategory)
	assert.Equal(t, "24-25", first.FeeTransactionAcademicYear)
	assert.Equal(t, int64(1), first.FeeTransactionReceiptNumber)
	assert.Regexp(t, `^FR-\d+$`, first.FeeTransactionReceiptID)

	second := f.pay(t, "SchoolFee", 1000)
	assert.True(t, second.HistoricalSnapshot.PreviousPayments.Equal(dec(3000)))
	assert.True(t, second.HistoricalSnapshot.RemainingBefore.Equal(dec(-1800)))
	assert.True(t, second.HistoricalSnapshot.RemainingAfter.Equal(dec(-2800)))
	assert.Equal(t, int64(2), second.FeeTransactionReceiptNumber)

	s, err := f.st.Students().Get(context.Background(), f.inst, f.student.StudentID)
	require.NoError(t, err)
	assert.True(t, s.StudentCurrentPaidFee.Equal(dec(4000)))
	assert.True(t, s.StudentOutstandingFee.Equal(dec(200)))

	// the first snapshot is not rewritten by later payments
	again, err := f.rec.GetTransaction(context.Background(), f.inst, first.FeeTransactionReceiptID)
	require.NoError(t, err)
	assert.True(t, again.HistoricalSnapshot.RemainingAfter.Equal(dec(-1800)))
}

func TestRecordPaymentCategoriesAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.pay(t, "SchoolFee", 3000)

	bus := f.pay(t, "TransportFee", 500)
	assert.Equal(t, feeModel.CategoryTransport, bus.FeeTransactionCategory)
	assert.True(t, bus.HistoricalSnapshot.InitialFee.Equal(dec(3000)))
	assert.True(t, bus.HistoricalSnapshot.ApplicableDiscount.IsZero())
	assert.True(t, bus.HistoricalSnapshot.PreviousPayments.IsZero())
	assert.True(t, bus.HistoricalSnapshot.RemainingAfter.Equal(dec(2500)))

	// not discount eligible and nothing configured
	other := f.pay(t, "Uniform", 750)
	assert.Equal(t, feeModel.CategoryOther, other.FeeTransactionCategory)
	assert.True(t, other.HistoricalSnapshot.InitialFee.IsZero())
	assert.True(t, other.HistoricalSnapshot.RemainingAfter.Equal(dec(-750)))
}

func TestRecordPaymentRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, amt := range []int64{0, -10} {
		_, err := f.rec.RecordPayment(ctx, f.inst, RecordInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(amt)})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		var ae *apperr.Error
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, "INVALID_AMOUNT", ae.Code)
	}

	// rounds to 0.00
	_, err := f.rec.RecordPayment(ctx, f.inst, RecordInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: decimalOf(t, "0.004")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.rec.RecordPayment(ctx, f.inst, RecordInput{StudentID: uuid.New(), FeeType: "SchoolFee", Amount: dec(1)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.rec.RecordPayment(ctx, f.inst, RecordInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(1), AcademicYear: "25-26"})
	assert.ErrorIs(t, err, apperr.ErrNotConfigured)

	_, err = f.rec.RecordPayment(ctx, f.inst, RecordInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(1), AcademicYear: "2025"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	rows, total, err := f.rec.ListTransactions(ctx, store.TransactionFilter{InstitutionID: f.inst})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestRecordPaymentIsAtomicOnCommitFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.st.FailNextCommit(errors.New("disk full"))
	_, err := f.rec.RecordPayment(ctx, f.inst, RecordInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(3000)})
	require.Error(t, err)

	s, err := f.st.Students().Get(ctx, f.inst, f.student.StudentID)
	require.NoError(t, err)
	assert.True(t, s.StudentCurrentPaidFee.IsZero())
	_, total, err := f.rec.ListTransactions(ctx, store.TransactionFilter{InstitutionID: f.inst})
	require.NoError(t, err)
	assert.Zero(t, total)

	// the sequence bump was rolled back too
	tx := f.pay(t, "SchoolFee", 3000)
	assert.Equal(t, int64(1), tx.FeeTransactionReceiptNumber)
}

func TestRecordPaymentIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := RecordInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(1000), IdempotencyKey: "counter-7-0001"}

	a, err := f.rec.RecordPayment(ctx, f.inst, in)
	require.NoError(t, err)
	b, err := f.rec.RecordPayment(ctx, f.inst, in)
	require.NoError(t, err)
	assert.Equal(t, a.FeeTransactionReceiptID, b.FeeTransactionReceiptID)

	s, _ := f.st.Students().Get(ctx, f.inst, f.student.StudentID)
	assert.True(t, s.StudentCurrentPaidFee.Equal(dec(1000)))
}

func TestConcurrentPaymentsStayMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 20

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []*model.FeeTransaction
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := f.rec.RecordPayment(ctx, f.inst, RecordInput{StudentID: f.student.StudentID, FeeType: "SchoolFee", Amount: dec(100)})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			got = append(got, tx)
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, got, n)

	sort.Slice(got, func(i, j int) bool { return got[i].FeeTransactionReceiptNumber < got[j].FeeTransactionReceiptNumber })
	ids := map[string]bool{}
	for i, tx := range got {
		assert.Equal(t, int64(i+1), tx.FeeTransactionReceiptNumber)
		assert.True(t, tx.HistoricalSnapshot.PreviousPayments.Equal(dec(int64(100*i))), "receipt %d", i+1)
		ids[tx.FeeTransactionReceiptID] = true
	}
	assert.Len(t, ids, n)

	s, _ := f.st.Students().Get(ctx, f.inst, f.student.StudentID)
	assert.True(t, s.StudentCurrentPaidFee.Equal(dec(100*n)))
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
