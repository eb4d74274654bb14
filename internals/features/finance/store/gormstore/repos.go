// file: internals/features/finance/store/gormstore/repos.go
package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	payModel "schoolfee_backend/internals/features/finance/payments/model"
	stockModel "schoolfee_backend/internals/features/finance/stock/model"
	"schoolfee_backend/internals/features/finance/store"
	studentModel "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what, id)
	}
	return mapErr("load "+what, err)
}

/* =========================
   Institutions
========================= */

type institutionRepo struct{ db *gorm.DB }

func (x institutionRepo) Get(ctx context.Context, id uuid.UUID) (*instModel.Institution, error) {
	var m instModel.Institution
	if err := x.db.WithContext(ctx).First(&m, "institution_id = ?", id).Error; err != nil {
		return nil, notFound(err, "institution", id.String())
	}
	return &m, nil
}

func (x institutionRepo) Create(ctx context.Context, m *instModel.Institution) error {
	return mapErr("create institution", x.db.WithContext(ctx).Create(m).Error)
}

func (x institutionRepo) Save(ctx context.Context, m *instModel.Institution) error {
	return mapErr("save institution", x.db.WithContext(ctx).Save(m).Error)
}

/* =========================
   Fee structures
========================= */

type structureRepo struct{ db *gorm.DB }

func (x structureRepo) get(db *gorm.DB, institutionID uuid.UUID, year string) (*feeModel.FeeStructure, error) {
	var m feeModel.FeeStructure
	err := db.
		Where("fee_structure_institution_id = ? AND fee_structure_academic_year = ?", institutionID, year).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, "fee structure", year)
	}
	return &m, nil
}

func (x structureRepo) Get(ctx context.Context, institutionID uuid.UUID, year string) (*feeModel.FeeStructure, error) {
	return x.get(x.db.WithContext(ctx), institutionID, year)
}

func (x structureRepo) GetForUpdate(ctx context.Context, institutionID uuid.UUID, year string) (*feeModel.FeeStructure, error) {
	return x.get(forUpdate(x.db.WithContext(ctx)), institutionID, year)
}

func (x structureRepo) List(ctx context.Context, institutionID uuid.UUID) ([]*feeModel.FeeStructure, error) {
	var rows []*feeModel.FeeStructure
	err := x.db.WithContext(ctx).
		Where("fee_structure_institution_id = ?", institutionID).
		Order("fee_structure_academic_year ASC").
		Find(&rows).Error
	return rows, mapErr("list fee structures", err)
}

func (x structureRepo) Create(ctx context.Context, m *feeModel.FeeStructure) error {
	return mapErr("create fee structure", x.db.WithContext(ctx).Create(m).Error)
}

func (x structureRepo) Save(ctx context.Context, m *feeModel.FeeStructure) error {
	return mapErr("save fee structure", x.db.WithContext(ctx).Save(m).Error)
}

func (x structureRepo) Delete(ctx context.Context, institutionID uuid.UUID, year string) (bool, error) {
	res := x.db.WithContext(ctx).
		Where("fee_structure_institution_id = ? AND fee_structure_academic_year = ?", institutionID, year).
		Delete(&feeModel.FeeStructure{})
	if res.Error != nil {
		return false, mapErr("delete fee structure", res.Error)
	}
	return res.RowsAffected > 0, nil
}

/* =========================
   Students
========================= */

type studentRepo struct{ db *gorm.DB }

func (x studentRepo) get(db *gorm.DB, institutionID, id uuid.UUID) (*studentModel.Student, error) {
	var m studentModel.Student
	err := db.Where("student_id = ? AND student_institution_id = ?", id, institutionID).First(&m).Error
	if err != nil {
		return nil, notFound(err, "student", id.String())
	}
	return &m, nil
}

func (x studentRepo) Get(ctx context.Context, institutionID, id uuid.UUID) (*studentModel.Student, error) {
	return x.get(x.db.WithContext(ctx), institutionID, id)
}

func (x studentRepo) GetForUpdate(ctx context.Context, institutionID, id uuid.UUID) (*studentModel.Student, error) {
	return x.get(forUpdate(x.db.WithContext(ctx)), institutionID, id)
}

func (x studentRepo) List(ctx context.Context, f store.StudentFilter) ([]*studentModel.Student, int64, error) {
	q := x.db.WithContext(ctx).Model(&studentModel.Student{}).
		Where("student_institution_id = ?", f.InstitutionID)
	if f.Class != "" {
		q = q.Where("LOWER(student_class) = LOWER(?)", feeModel.NormalizeName(f.Class))
	}
	if f.Division != "" {
		q = q.Where("LOWER(student_division) = LOWER(?)", f.Division)
	}
	if f.AcademicYear != "" {
		q = q.Where("student_academic_year = ?", f.AcademicYear)
	}
	if f.Status != "" {
		q = q.Where("student_status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(student_fee_id) LIKE ? OR LOWER(student_fname) LIKE ? OR LOWER(student_lname) LIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapErr("count students", err)
	}
	var rows []*studentModel.Student
	if err := paged(q.Order("student_fee_id ASC"), f.Page).Find(&rows).Error; err != nil {
		return nil, 0, mapErr("list students", err)
	}
	return rows, total, nil
}

func (x studentRepo) Create(ctx context.Context, m *studentModel.Student) error {
	return mapErr("create student", x.db.WithContext(ctx).Create(m).Error)
}

func (x studentRepo) Save(ctx context.Context, m *studentModel.Student) error {
	return mapErr("save student", x.db.WithContext(ctx).Save(m).Error)
}

func (x studentRepo) Delete(ctx context.Context, institutionID, id uuid.UUID) (bool, error) {
	res := x.db.WithContext(ctx).
		Where("student_id = ? AND student_institution_id = ?", id, institutionID).
		Delete(&studentModel.Student{})
	if res.Error != nil {
		return false, mapErr("delete student", res.Error)
	}
	return res.RowsAffected > 0, nil
}

/* =========================
   Fee transactions
========================= */

type transactionRepo struct{ db *gorm.DB }

func (x transactionRepo) Create(ctx context.Context, m *payModel.FeeTransaction) error {
	if m.FeeTransactionID == uuid.Nil {
		m.FeeTransactionID = uuid.New()
	}
	return mapErr("append fee transaction", x.db.WithContext(ctx).Create(m).Error)
}

func (x transactionRepo) GetByReceiptID(ctx context.Context, institutionID uuid.UUID, receiptID string) (*payModel.FeeTransaction, error) {
	var m payModel.FeeTransaction
	err := x.db.WithContext(ctx).
		Where("fee_transaction_institution_id = ? AND fee_transaction_receipt_id = ?", institutionID, receiptID).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, "receipt", receiptID)
	}
	return &m, nil
}

func (x transactionRepo) GetByIdempotencyKey(ctx context.Context, institutionID uuid.UUID, key string) (*payModel.FeeTransaction, error) {
	var rows []payModel.FeeTransaction
	err := x.db.WithContext(ctx).
		Where("fee_transaction_institution_id = ? AND fee_transaction_idempotency_key = ?", institutionID, key).
		Limit(1).Find(&rows).Error
	if err != nil {
		return nil, mapErr("load by idempotency key", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (x transactionRepo) SumAmounts(ctx context.Context, institutionID, studentID uuid.UUID, cat feeModel.FeeCategory, year string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := x.db.WithContext(ctx).Model(&payModel.FeeTransaction{}).
		Select("SUM(fee_transaction_amount)").
		Where(`fee_transaction_institution_id = ? AND fee_transaction_student_id = ?
		       AND fee_transaction_category = ? AND fee_transaction_academic_year = ?`,
			institutionID, studentID, cat, year).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, mapErr("sum payments", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (x transactionRepo) Totals(ctx context.Context, institutionID, studentID uuid.UUID) ([]store.CategoryTotal, error) {
	type row struct {
		AcademicYear string
		Category     string
		Paid         decimal.Decimal
		Count        int64
	}
	var rows []row
	err := x.db.WithContext(ctx).Model(&payModel.FeeTransaction{}).
		Select(`fee_transaction_academic_year AS academic_year,
		        fee_transaction_category AS category,
		        SUM(fee_transaction_amount) AS paid,
		        COUNT(*) AS count`).
		Where("fee_transaction_institution_id = ? AND fee_transaction_student_id = ?", institutionID, studentID).
		Group("fee_transaction_academic_year, fee_transaction_category").
		Order("fee_transaction_academic_year ASC, fee_transaction_category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, mapErr("payment totals", err)
	}
	out := make([]store.CategoryTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.CategoryTotal{
			AcademicYear: r.AcademicYear,
			Category:     feeModel.FeeCategory(r.Category),
			Paid:         r.Paid,
			Count:        r.Count,
		})
	}
	return out, nil
}

func (x transactionRepo) List(ctx context.Context, f store.TransactionFilter) ([]*payModel.FeeTransaction, int64, error) {
	q := x.db.WithContext(ctx).Model(&payModel.FeeTransaction{}).
		Where("fee_transaction_institution_id = ?", f.InstitutionID)
	if f.StudentID != nil {
		q = q.Where("fee_transaction_student_id = ?", *f.StudentID)
	}
	if f.Category != "" {
		q = q.Where("fee_transaction_category = ?", f.Category)
	}
	if f.AcademicYear != "" {
		q = q.Where("fee_transaction_academic_year = ?", f.AcademicYear)
	}
	if f.From != nil {
		q = q.Where("fee_transaction_timestamp >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("fee_transaction_timestamp < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapErr("count fee transactions", err)
	}
	var rows []*payModel.FeeTransaction
	err := paged(q.Order("fee_transaction_timestamp DESC, fee_transaction_receipt_number DESC"), f.Page).Find(&rows).Error
	if err != nil {
		return nil, 0, mapErr("list fee transactions", err)
	}
	return rows, total, nil
}

/* =========================
   Sequences
========================= */

type sequenceRepo struct{ db *gorm.DB }

// Next is an upsert that bumps the counter and returns the new value in one round trip.
func (x sequenceRepo) Next(ctx context.Context, institutionID uuid.UUID, name string) (int64, error) {
	seq := payModel.LedgerSequence{
		LedgerSequenceInstitutionID: institutionID,
		LedgerSequenceName:          name,
		LedgerSequenceValue:         1,
	}
	err := x.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "ledger_sequence_institution_id"}, {Name: "ledger_sequence_name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"ledger_sequence_value": gorm.Expr("ledger_sequences.ledger_sequence_value + 1"),
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "ledger_sequence_value"}}},
	).Create(&seq).Error
	if err != nil {
		return 0, mapErr("next sequence", err)
	}
	return seq.LedgerSequenceValue, nil
}

/* =========================
   Checkouts
========================= */

type checkoutRepo struct{ db *gorm.DB }

func (x checkoutRepo) Create(ctx context.Context, m *payModel.PaymentCheckout) error {
	return mapErr("create checkout", x.db.WithContext(ctx).Create(m).Error)
}

func (x checkoutRepo) get(db *gorm.DB, orderID string) (*payModel.PaymentCheckout, error) {
	var m payModel.PaymentCheckout
	if err := db.Where("payment_checkout_order_id = ?", orderID).First(&m).Error; err != nil {
		return nil, notFound(err, "checkout", orderID)
	}
	return &m, nil
}

func (x checkoutRepo) GetByOrderID(ctx context.Context, orderID string) (*payModel.PaymentCheckout, error) {
	return x.get(x.db.WithContext(ctx), orderID)
}

func (x checkoutRepo) GetByOrderIDForUpdate(ctx context.Context, orderID string) (*payModel.PaymentCheckout, error) {
	return x.get(forUpdate(x.db.WithContext(ctx)), orderID)
}

func (x checkoutRepo) Save(ctx context.Context, m *payModel.PaymentCheckout) error {
	return mapErr("save checkout", x.db.WithContext(ctx).Save(m).Error)
}

func (x checkoutRepo) ListByStudent(ctx context.Context, institutionID, studentID uuid.UUID) ([]*payModel.PaymentCheckout, error) {
	var rows []*payModel.PaymentCheckout
	err := x.db.WithContext(ctx).
		Where("payment_checkout_institution_id = ? AND payment_checkout_student_id = ?", institutionID, studentID).
		Order("payment_checkout_created_at DESC").
		Find(&rows).Error
	return rows, mapErr("list checkouts", err)
}

func (x checkoutRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res := x.db.WithContext(ctx).Model(&payModel.PaymentCheckout{}).
		Where("payment_checkout_status = ? AND payment_checkout_expires_at < ?", payModel.CheckoutPending, now).
		Updates(map[string]any{
			"payment_checkout_status":     payModel.CheckoutExpired,
			"payment_checkout_updated_at": now,
		})
	if res.Error != nil {
		return 0, mapErr("expire checkouts", res.Error)
	}
	return res.RowsAffected, nil
}

/* =========================
   Stock
========================= */

type stockRepo struct{ db *gorm.DB }

func (x stockRepo) CreateItem(ctx context.Context, m *stockModel.StockItem) error {
	return mapErr("create stock item", x.db.WithContext(ctx).Create(m).Error)
}

func (x stockRepo) getItem(db *gorm.DB, institutionID, id uuid.UUID) (*stockModel.StockItem, error) {
	var m stockModel.StockItem
	err := db.Where("stock_item_id = ? AND stock_item_institution_id = ?", id, institutionID).First(&m).Error
	if err != nil {
		return nil, notFound(err, "stock item", id.String())
	}
	return &m, nil
}

func (x stockRepo) GetItem(ctx context.Context, institutionID, id uuid.UUID) (*stockModel.StockItem, error) {
	return x.getItem(x.db.WithContext(ctx), institutionID, id)
}

func (x stockRepo) GetItemForUpdate(ctx context.Context, institutionID, id uuid.UUID) (*stockModel.StockItem, error) {
	return x.getItem(forUpdate(x.db.WithContext(ctx)), institutionID, id)
}

func (x stockRepo) FindItemsByName(ctx context.Context, institutionID uuid.UUID, name string) ([]*stockModel.StockItem, error) {
	var rows []*stockModel.StockItem
	err := x.db.WithContext(ctx).
		Where("stock_item_institution_id = ? AND LOWER(stock_item_name) = LOWER(?)", institutionID, name).
		Order("stock_item_created_at ASC").
		Find(&rows).Error
	return rows, mapErr("find stock items", err)
}

func (x stockRepo) ListItems(ctx context.Context, f store.StockItemFilter) ([]*stockModel.StockItem, int64, error) {
	q := x.db.WithContext(ctx).Model(&stockModel.StockItem{}).
		Where("stock_item_institution_id = ?", f.InstitutionID)
	if s := strings.TrimSpace(f.Name); s != "" {
		q = q.Where("LOWER(stock_item_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.Category != "" {
		q = q.Where("LOWER(stock_item_category) = LOWER(?)", f.Category)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapErr("count stock items", err)
	}
	var rows []*stockModel.StockItem
	if err := paged(q.Order("stock_item_name ASC, stock_item_from_class ASC"), f.Page).Find(&rows).Error; err != nil {
		return nil, 0, mapErr("list stock items", err)
	}
	return rows, total, nil
}

func (x stockRepo) SaveItem(ctx context.Context, m *stockModel.StockItem) error {
	return mapErr("save stock item", x.db.WithContext(ctx).Save(m).Error)
}

func (x stockRepo) DeleteItem(ctx context.Context, institutionID, id uuid.UUID) (bool, error) {
	res := x.db.WithContext(ctx).
		Where("stock_item_id = ? AND stock_item_institution_id = ?", id, institutionID).
		Delete(&stockModel.StockItem{})
	if res.Error != nil {
		return false, mapErr("delete stock item", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (x stockRepo) CreateSale(ctx context.Context, m *stockModel.StockSale) error {
	if m.StockSaleID == uuid.Nil {
		m.StockSaleID = uuid.New()
	}
	return mapErr("append stock sale", x.db.WithContext(ctx).Create(m).Error)
}

func (x stockRepo) GetSaleByReceiptID(ctx context.Context, institutionID uuid.UUID, receiptID string) (*stockModel.StockSale, error) {
	var m stockModel.StockSale
	err := x.db.WithContext(ctx).
		Where("stock_sale_institution_id = ? AND stock_sale_receipt_id = ?", institutionID, receiptID).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, "receipt", receiptID)
	}
	return &m, nil
}

func (x stockRepo) ListSales(ctx context.Context, f store.StockSaleFilter) ([]*stockModel.StockSale, int64, error) {
	q := x.db.WithContext(ctx).Model(&stockModel.StockSale{}).
		Where("stock_sale_institution_id = ?", f.InstitutionID)
	if f.StudentID != nil {
		q = q.Where("stock_sale_student_id = ?", *f.StudentID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapErr("count stock sales", err)
	}
	var rows []*stockModel.StockSale
	if err := paged(q.Order("stock_sale_timestamp DESC"), f.Page).Find(&rows).Error; err != nil {
		return nil, 0, mapErr("list stock sales", err)
	}
	return rows, total, nil
}
