// file: internals/features/finance/payments/model/fee_transaction_model.go
package model

import (
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/* ==============================
   SNAPSHOT (embedded, immutable)
============================== */

type HistoricalSnapshot struct {
	InitialFee         decimal.Decimal `json:"initial_fee" gorm:"column:initial_fee;type:numeric(14,2);not null"`
	ApplicableDiscount decimal.Decimal `json:"applicable_discount" gorm:"column:applicable_discount;type:numeric(14,2);not null"`
	PreviousPayments   decimal.Decimal `json:"previous_payments" gorm:"column:previous_payments;type:numeric(14,2);not null"`
	RemainingBefore    decimal.Decimal `json:"remaining_before" gorm:"column:remaining_before;type:numeric(14,2);not null"`
	RemainingAfter     decimal.Decimal `json:"remaining_after" gorm:"column:remaining_after;type:numeric(14,2);not null"`
}

// NetFee is the fee due for the category after the discount.
func (s HistoricalSnapshot) NetFee() decimal.Decimal {
	return s.InitialFee.Sub(s.ApplicableDiscount)
}

/* ==============================
   MODEL: fee_transactions
============================== */

type FeeTransaction struct {
	FeeTransactionID            uuid.UUID `json:"fee_transaction_id" gorm:"column:fee_transaction_id;type:uuid;primaryKey"`
	FeeTransactionReceiptID     string    `json:"receipt_id" gorm:"column:fee_transaction_receipt_id;type:varchar(32);not null;uniqueIndex"`
	FeeTransactionReceiptNumber int64     `json:"receipt_number" gorm:"column:fee_transaction_receipt_number;not null"`

	FeeTransactionInstitutionID uuid.UUID `json:"institution_id" gorm:"column:fee_transaction_institution_id;type:uuid;not null;index:idx_fee_tx_student,priority:1;uniqueIndex:uq_fee_tx_idem,priority:1,where:fee_transaction_idempotency_key IS NOT NULL"`
	FeeTransactionStudentID     uuid.UUID `json:"student_id" gorm:"column:fee_transaction_student_id;type:uuid;not null;index:idx_fee_tx_student,priority:2"`

	FeeTransactionFeeType      string               `json:"fee_type" gorm:"column:fee_transaction_fee_type;type:varchar(60);not null"`
	FeeTransactionCategory     feeModel.FeeCategory `json:"category" gorm:"column:fee_transaction_category;type:varchar(16);not null;index:idx_fee_tx_student,priority:3"`
	FeeTransactionAcademicYear string               `json:"academic_year" gorm:"column:fee_transaction_academic_year;type:varchar(5);not null;index:idx_fee_tx_student,priority:4"`
	FeeTransactionAmount       decimal.Decimal      `json:"amount" gorm:"column:fee_transaction_amount;type:numeric(14,2);not null"`

	FeeTransactionPaymentMode string `json:"payment_mode" gorm:"column:fee_transaction_payment_mode;type:varchar(30)"`
	FeeTransactionAccount     string `json:"account" gorm:"column:fee_transaction_account;type:varchar(60)"`
	FeeTransactionRemark      string `json:"remark" gorm:"column:fee_transaction_remark;type:text"`

	FeeTransactionIdempotencyKey *string   `json:"idempotency_key,omitempty" gorm:"column:fee_transaction_idempotency_key;type:varchar(80);uniqueIndex:uq_fee_tx_idem,priority:2,where:fee_transaction_idempotency_key IS NOT NULL"`
	FeeTransactionRecordedBy     string    `json:"recorded_by,omitempty" gorm:"column:fee_transaction_recorded_by;type:varchar(80)"`
	FeeTransactionTimestamp      time.Time `json:"timestamp" gorm:"column:fee_transaction_timestamp;type:timestamptz;not null"`

	HistoricalSnapshot HistoricalSnapshot `json:"historical_snapshot" gorm:"embedded;embeddedPrefix:snapshot_"`
}

func (FeeTransaction) TableName() string { return "fee_transactions" }

func (m *FeeTransaction) Clone() *FeeTransaction {
	if m == nil {
		return nil
	}
	cp := *m
	if m.FeeTransactionIdempotencyKey != nil {
		k := *m.FeeTransactionIdempotencyKey
		cp.FeeTransactionIdempotencyKey = &k
	}
	return &cp
}
