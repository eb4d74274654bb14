// file: internals/features/finance/payments/dto/payment_dto.go
package dto

import (
	"strings"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	model "schoolfee_backend/internals/features/finance/payments/model"
	"schoolfee_backend/internals/features/finance/payments/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/* =========================================================
   REQUESTS
========================================================= */

// RecordPaymentRequest accepts amount as 3000, 3000.50 or "3000.50".
type RecordPaymentRequest struct {
	StudentID      uuid.UUID       `json:"student_id"      validate:"required"`
	FeeType        string          `json:"fee_type"        validate:"required,max=60"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMode    string          `json:"payment_mode"    validate:"omitempty,max=30"`
	Account        string          `json:"account"         validate:"omitempty,max=60"`
	Remark         string          `json:"remark"          validate:"omitempty,max=500"`
	AcademicYear   string          `json:"academic_year"   validate:"omitempty,len=5"`
	IdempotencyKey string          `json:"idempotency_key" validate:"omitempty,max=80"`
}

func (r *RecordPaymentRequest) ToInput(recordedBy string) service.RecordInput {
	return service.RecordInput{
		StudentID:      r.StudentID,
		FeeType:        r.FeeType,
		Amount:         r.Amount,
		PaymentMode:    r.PaymentMode,
		Account:        r.Account,
		Remark:         r.Remark,
		AcademicYear:   strings.TrimSpace(r.AcademicYear),
		IdempotencyKey: r.IdempotencyKey,
		RecordedBy:     recordedBy,
	}
}

type StartCheckoutRequest struct {
	StudentID    uuid.UUID       `json:"student_id"    validate:"required"`
	FeeType      string          `json:"fee_type"      validate:"required,max=60"`
	Amount       decimal.Decimal `json:"amount"`
	AcademicYear string          `json:"academic_year" validate:"omitempty,len=5"`
}

func (r *StartCheckoutRequest) ToInput() service.CheckoutInput {
	return service.CheckoutInput{
		StudentID:    r.StudentID,
		FeeType:      r.FeeType,
		Amount:       r.Amount,
		AcademicYear: strings.TrimSpace(r.AcademicYear),
	}
}

/* =========================================================
   RESPONSES
========================================================= */

type SnapshotResponse struct {
	InitialFee         decimal.Decimal `json:"initial_fee"`
	ApplicableDiscount decimal.Decimal `json:"applicable_discount"`
	NetFee             decimal.Decimal `json:"net_fee"`
	PreviousPayments   decimal.Decimal `json:"previous_payments"`
	RemainingBefore    decimal.Decimal `json:"remaining_before"`
	RemainingAfter     decimal.Decimal `json:"remaining_after"`
}

type TransactionResponse struct {
	ReceiptID     string               `json:"receipt_id"`
	ReceiptNumber int64                `json:"receipt_number"`
	InstitutionID uuid.UUID            `json:"institution_id"`
	StudentID     uuid.UUID            `json:"student_id"`
	FeeType       string               `json:"fee_type"`
	Category      feeModel.FeeCategory `json:"category"`
	AcademicYear  string               `json:"academic_year"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMode   string               `json:"payment_mode"`
	Account       string               `json:"account"`
	Remark        string               `json:"remark"`
	RecordedBy    string               `json:"recorded_by,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
	Snapshot      SnapshotResponse     `json:"historical_snapshot"`
}

func FromTransaction(m *model.FeeTransaction) TransactionResponse {
	s := m.HistoricalSnapshot
	return TransactionResponse{
		ReceiptID:     m.FeeTransactionReceiptID,
		ReceiptNumber: m.FeeTransactionReceiptNumber,
		InstitutionID: m.FeeTransactionInstitutionID,
		StudentID:     m.FeeTransactionStudentID,
		FeeType:       m.FeeTransactionFeeType,
		Category:      m.FeeTransactionCategory,
		AcademicYear:  m.FeeTransactionAcademicYear,
		Amount:        m.FeeTransactionAmount,
		PaymentMode:   m.FeeTransactionPaymentMode,
		Account:       m.FeeTransactionAccount,
		Remark:        m.FeeTransactionRemark,
		RecordedBy:    m.FeeTransactionRecordedBy,
		Timestamp:     m.FeeTransactionTimestamp,
		Snapshot: SnapshotResponse{
			InitialFee:         s.InitialFee,
			ApplicableDiscount: s.ApplicableDiscount,
			NetFee:             s.NetFee(),
			PreviousPayments:   s.PreviousPayments,
			RemainingBefore:    s.RemainingBefore,
			RemainingAfter:     s.RemainingAfter,
		},
	}
}

func FromTransactions(rows []*model.FeeTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, FromTransaction(m))
	}
	return out
}
