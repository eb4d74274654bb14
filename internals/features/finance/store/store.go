// file: internals/features/finance/store/store.go
package store

import (
	"context"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	payModel "schoolfee_backend/internals/features/finance/payments/model"
	stockModel "schoolfee_backend/internals/features/finance/stock/model"
	studentModel "schoolfee_backend/internals/features/finance/students/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/*
Store is the document-store boundary of the finance core.

Every method outside WithinTx runs on its own. WithinTx runs fn inside one
atomic unit; nothing fn writes is visible until it returns nil. Implementations
may run fn more than once on serialization failures, so fn must not have side
effects outside the Repos it is given.
*/
type Store interface {
	Repos
	WithinTx(ctx context.Context, fn func(tx Repos) error) error
}

type Repos interface {
	Institutions() InstitutionRepo
	FeeStructures() FeeStructureRepo
	Students() StudentRepo
	Transactions() TransactionRepo
	Sequences() SequenceRepo
	Checkouts() CheckoutRepo
	Stock() StockRepo
}

// Page is a limit/offset window. Limit <= 0 means no limit.
type Page struct {
	Limit  int
	Offset int
}

/* =========================
   Institutions
========================= */

type InstitutionRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*instModel.Institution, error)
	Create(ctx context.Context, m *instModel.Institution) error
	Save(ctx context.Context, m *instModel.Institution) error
}

/* =========================
   Fee structures
========================= */

type FeeStructureRepo interface {
	Get(ctx context.Context, institutionID uuid.UUID, academicYear string) (*feeModel.FeeStructure, error)
	// GetForUpdate locks the structure row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, institutionID uuid.UUID, academicYear string) (*feeModel.FeeStructure, error)
	// List is ordered by academic year, oldest first.
	List(ctx context.Context, institutionID uuid.UUID) ([]*feeModel.FeeStructure, error)
	Create(ctx context.Context, m *feeModel.FeeStructure) error
	Save(ctx context.Context, m *feeModel.FeeStructure) error
	Delete(ctx context.Context, institutionID uuid.UUID, academicYear string) (bool, error)
}

/* =========================
   Students
========================= */

type StudentFilter struct {
	InstitutionID uuid.UUID
	Class         string
	Division      string
	AcademicYear  string
	Status        studentModel.StudentStatus
	Search        string // matches fee id, first or last name
	Page          Page
}

type StudentRepo interface {
	Get(ctx context.Context, institutionID, studentID uuid.UUID) (*studentModel.Student, error)
	GetForUpdate(ctx context.Context, institutionID, studentID uuid.UUID) (*studentModel.Student, error)
	List(ctx context.Context, f StudentFilter) ([]*studentModel.Student, int64, error)
	Create(ctx context.Context, m *studentModel.Student) error
	Save(ctx context.Context, m *studentModel.Student) error
	Delete(ctx context.Context, institutionID, studentID uuid.UUID) (bool, error)
}

/* =========================
   Fee transactions
========================= */

type TransactionFilter struct {
	InstitutionID uuid.UUID
	StudentID     *uuid.UUID
	Category      feeModel.FeeCategory
	AcademicYear  string
	From, To      *time.Time
	Page          Page
}

// CategoryTotal is the paid sum of one student for one (year, category).
type CategoryTotal struct {
	AcademicYear string
	Category     feeModel.FeeCategory
	Paid         decimal.Decimal
	Count        int64
}

type TransactionRepo interface {
	Create(ctx context.Context, m *payModel.FeeTransaction) error
	GetByReceiptID(ctx context.Context, institutionID uuid.UUID, receiptID string) (*payModel.FeeTransaction, error)
	// GetByIdempotencyKey returns (nil, nil) when the key was never used.
	GetByIdempotencyKey(ctx context.Context, institutionID uuid.UUID, key string) (*payModel.FeeTransaction, error)
	SumAmounts(ctx context.Context, institutionID, studentID uuid.UUID, category feeModel.FeeCategory, academicYear string) (decimal.Decimal, error)
	Totals(ctx context.Context, institutionID, studentID uuid.UUID) ([]CategoryTotal, error)
	// List is ordered newest first.
	List(ctx context.Context, f TransactionFilter) ([]*payModel.FeeTransaction, int64, error)
}

/* =========================
   Sequences
========================= */

type SequenceRepo interface {
	// Next increments and returns the counter; the first value is 1.
	Next(ctx context.Context, institutionID uuid.UUID, name string) (int64, error)
}

/* =========================
   Gateway checkouts
========================= */

type CheckoutRepo interface {
	Create(ctx context.Context, m *payModel.PaymentCheckout) error
	GetByOrderID(ctx context.Context, orderID string) (*payModel.PaymentCheckout, error)
	GetByOrderIDForUpdate(ctx context.Context, orderID string) (*payModel.PaymentCheckout, error)
	Save(ctx context.Context, m *payModel.PaymentCheckout) error
	ListByStudent(ctx context.Context, institutionID, studentID uuid.UUID) ([]*payModel.PaymentCheckout, error)
	// ExpirePending marks pending checkouts with expires_at before now as expired.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

/* =========================
   Stock
========================= */

type StockItemFilter struct {
	InstitutionID uuid.UUID
	Name          string
	Category      string
	Page          Page
}

type StockSaleFilter struct {
	InstitutionID uuid.UUID
	StudentID     *uuid.UUID
	Page          Page
}

type StockRepo interface {
	CreateItem(ctx context.Context, m *stockModel.StockItem) error
	GetItem(ctx context.Context, institutionID, itemID uuid.UUID) (*stockModel.StockItem, error)
	GetItemForUpdate(ctx context.Context, institutionID, itemID uuid.UUID) (*stockModel.StockItem, error)
	// FindItemsByName matches case-insensitively on the item name.
	FindItemsByName(ctx context.Context, institutionID uuid.UUID, name string) ([]*stockModel.StockItem, error)
	ListItems(ctx context.Context, f StockItemFilter) ([]*stockModel.StockItem, int64, error)
	SaveItem(ctx context.Context, m *stockModel.StockItem) error
	DeleteItem(ctx context.Context, institutionID, itemID uuid.UUID) (bool, error)

	CreateSale(ctx context.Context, m *stockModel.StockSale) error
	GetSaleByReceiptID(ctx context.Context, institutionID uuid.UUID, receiptID string) (*stockModel.StockSale, error)
	ListSales(ctx context.Context, f StockSaleFilter) ([]*stockModel.StockSale, int64, error)
}
