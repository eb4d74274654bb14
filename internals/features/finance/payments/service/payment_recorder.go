// file: internals/features/finance/payments/service/payment_recorder.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	model "schoolfee_backend/internals/features/finance/payments/model"
	"schoolfee_backend/internals/features/finance/store"
	studentService "schoolfee_backend/internals/features/finance/students/service"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

/* =========================================================
   Recorder
========================================================= */

// PaymentRecorder appends fee transactions and moves the student totals in the
// same store transaction.
type PaymentRecorder struct {
	store  store.Store
	nextID func() string
	log    *zap.Logger
	now    func() time.Time
}

// NewPaymentRecorder issues receipt ids from the snowflake node, optionally
// prefixed ("FR-1790…").
func NewPaymentRecorder(st store.Store, node *snowflake.Node, receiptPrefix string, log *zap.Logger) *PaymentRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	prefix := strings.TrimSpace(receiptPrefix)
	if prefix != "" {
		prefix += "-"
	}
	return &PaymentRecorder{
		store:  st,
		nextID: func() string { return prefix + node.Generate().String() },
		log:    log,
		now:    time.Now,
	}
}

type RecordInput struct {
	StudentID    uuid.UUID
	FeeType      string
	Amount       decimal.Decimal
	PaymentMode  string
	Account      string
	Remark       string
	AcademicYear string // empty = the student's current year

	IdempotencyKey string
	RecordedBy     string
}

// RecordPayment validates, snapshots and appends one payment. A repeated
// IdempotencyKey returns the first transaction and writes nothing.
func (r *PaymentRecorder) RecordPayment(ctx context.Context, institutionID uuid.UUID, in RecordInput) (*model.FeeTransaction, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperr.InvalidAmount(in.Amount)
	}
	feeType := feeModel.NormalizeName(in.FeeType)
	if feeType == "" {
		return nil, apperr.Field("fee_type", "required")
	}
	if in.AcademicYear != "" && !feeModel.ValidAcademicYear(in.AcademicYear) {
		return nil, apperr.Field("academic_year", "must be YY-YY with consecutive years, e.g. 24-25")
	}
	category := feeModel.CategoryOfFeeType(feeType)
	key := strings.TrimSpace(in.IdempotencyKey)

	var (
		out    *model.FeeTransaction
		replay bool
	)
	err := r.store.WithinTx(ctx, func(tx store.Repos) error {
		out, replay = nil, false

		st, err := tx.Students().GetForUpdate(ctx, institutionID, in.StudentID)
		if err != nil {
			return err
		}
		if key != "" {
			prev, err := tx.Transactions().GetByIdempotencyKey(ctx, institutionID, key)
			if err != nil {
				return err
			}
			if prev != nil {
				out, replay = prev, true
				return nil
			}
		}

		year := in.AcademicYear
		if year == "" {
			year = st.StudentAcademicYear
		}
		fees := studentService.NewFeeResolver(tx.FeeStructures(), r.log)
		q := studentService.QueryFor(st, year)

		initial, err := fees.ResolveCategoryFee(ctx, q, category)
		if err != nil {
			return err
		}
		discount := decimal.Zero
		if category.DiscountEligible() {
			if discount, err = fees.ComputeCategoryDiscount(ctx, q, category); err != nil {
				return err
			}
		}
		previous, err := tx.Transactions().SumAmounts(ctx, institutionID, st.StudentID, category, year)
		if err != nil {
			return err
		}
		before := initial.Sub(discount).Sub(previous)

		seq, err := tx.Sequences().Next(ctx, institutionID, model.SequenceFeeReceipt)
		if err != nil {
			return err
		}
		t := &model.FeeTransaction{
			FeeTransactionID:            uuid.New(),
			FeeTransactionReceiptID:     r.nextID(),
			FeeTransactionReceiptNumber: seq,
			FeeTransactionInstitutionID: institutionID,
			FeeTransactionStudentID:     st.StudentID,
			FeeTransactionFeeType:       feeType,
			FeeTransactionCategory:      category,
			FeeTransactionAcademicYear:  year,
			FeeTransactionAmount:        amount,
			FeeTransactionPaymentMode:   strings.TrimSpace(in.PaymentMode),
			FeeTransactionAccount:       strings.TrimSpace(in.Account),
			FeeTransactionRemark:        strings.TrimSpace(in.Remark),
			FeeTransactionRecordedBy:    in.RecordedBy,
			FeeTransactionTimestamp:     r.now(),
			HistoricalSnapshot: model.HistoricalSnapshot{
				InitialFee:         initial,
				ApplicableDiscount: discount,
				PreviousPayments:   previous,
				RemainingBefore:    before,
				RemainingAfter:     before.Sub(amount),
			},
		}
		if key != "" {
			t.FeeTransactionIdempotencyKey = &key
		}
		if err := tx.Transactions().Create(ctx, t); err != nil {
			return err
		}

		st.ApplyPayment(amount)
		if err := tx.Students().Save(ctx, st); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		// same key raced in from another student row
		if key != "" && errors.Is(err, apperr.ErrDuplicate) {
			if prev, gerr := r.store.Transactions().GetByIdempotencyKey(ctx, institutionID, key); gerr == nil && prev != nil {
				return prev, nil
			}
		}
		return nil, err
	}

	if replay {
		r.log.Info("payment replayed",
			zap.String("institution_id", institutionID.String()),
			zap.String("receipt_id", out.FeeTransactionReceiptID),
			zap.String("idempotency_key", key),
		)
		return out, nil
	}
	r.log.Info("payment recorded",
		zap.String("institution_id", institutionID.String()),
		zap.String("student_id", out.FeeTransactionStudentID.String()),
		zap.String("receipt_id", out.FeeTransactionReceiptID),
		zap.Int64("receipt_number", out.FeeTransactionReceiptNumber),
		zap.String("category", string(out.FeeTransactionCategory)),
		zap.String("academic_year", out.FeeTransactionAcademicYear),
		zap.String("amount", out.FeeTransactionAmount.StringFixed(2)),
	)
	return out, nil
}

/* =========================================================
   Reads
========================================================= */

func (r *PaymentRecorder) GetTransaction(ctx context.Context, institutionID uuid.UUID, receiptID string) (*model.FeeTransaction, error) {
	return r.store.Transactions().GetByReceiptID(ctx, institutionID, strings.TrimSpace(receiptID))
}

func (r *PaymentRecorder) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]*model.FeeTransaction, int64, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, 0, apperr.Field("category", "unknown category")
	}
	if f.AcademicYear != "" && !feeModel.ValidAcademicYear(f.AcademicYear) {
		return nil, 0, apperr.Field("academic_year", "must be YY-YY with consecutive years, e.g. 24-25")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, apperr.Field("to", "must not be before from")
	}
	return r.store.Transactions().List(ctx, f)
}
