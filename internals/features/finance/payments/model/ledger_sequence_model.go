// file: internals/features/finance/payments/model/ledger_sequence_model.go
package model

import "github.com/google/uuid"

const (
	SequenceFeeReceipt   = "fee_receipt"
	SequenceStockReceipt = "stock_receipt"
)

// LedgerSequence is a per-institution counter bumped inside the writing transaction.
type LedgerSequence struct {
	LedgerSequenceInstitutionID uuid.UUID `gorm:"column:ledger_sequence_institution_id;type:uuid;primaryKey"`
	LedgerSequenceName          string    `gorm:"column:ledger_sequence_name;type:varchar(40);primaryKey"`
	LedgerSequenceValue         int64     `gorm:"column:ledger_sequence_value;not null;default:0"`
}

func (LedgerSequence) TableName() string { return "ledger_sequences" }
