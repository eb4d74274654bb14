// file: internals/features/finance/receipts/service/receipt_service.go
package service

import (
	"context"
	"strings"

	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	studentModel "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptService loads the records a receipt is composed from.
type ReceiptService struct {
	store store.Store
	log   *zap.Logger
}

func NewReceiptService(st store.Store, log *zap.Logger) *ReceiptService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReceiptService{store: st, log: log}
}

func (s *ReceiptService) FeeReceipt(ctx context.Context, institutionID uuid.UUID, receiptID string) (*ReceiptDocument, error) {
	tx, err := s.store.Transactions().GetByReceiptID(ctx, institutionID, strings.TrimSpace(receiptID))
	if err != nil {
		return nil, err
	}
	inst, st, err := s.parties(ctx, institutionID, tx.FeeTransactionStudentID, tx.FeeTransactionAcademicYear)
	if err != nil {
		return nil, err
	}
	return Compose(st, inst, tx), nil
}

func (s *ReceiptService) StockReceipt(ctx context.Context, institutionID uuid.UUID, receiptID string) (*ReceiptDocument, error) {
	sale, err := s.store.Stock().GetSaleByReceiptID(ctx, institutionID, strings.TrimSpace(receiptID))
	if err != nil {
		return nil, err
	}
	inst, st, err := s.parties(ctx, institutionID, sale.StockSaleStudentID, "")
	if err != nil {
		return nil, err
	}
	return ComposeStockReceipt(st, inst, sale), nil
}

// parties tolerates a hard-deleted student: its ledger rows stay printable.
func (s *ReceiptService) parties(ctx context.Context, institutionID, studentID uuid.UUID, year string) (*instModel.Institution, *studentModel.Student, error) {
	inst, err := s.store.Institutions().Get(ctx, institutionID)
	if err != nil {
		return nil, nil, err
	}
	st, err := s.store.Students().Get(ctx, institutionID, studentID)
	if apperr.IsNotFound(err) {
		s.log.Warn("receipt for removed student", zap.String("student_id", studentID.String()))
		return inst, &studentModel.Student{StudentID: studentID, StudentAcademicYear: year}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return inst, st, nil
}
