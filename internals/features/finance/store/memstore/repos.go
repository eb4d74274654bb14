// file: internals/features/finance/store/memstore/repos.go
package memstore

import (
	"context"
	"sort"
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
)

/* =========================
   Institutions
========================= */

type institutionRepo struct{ r *repos }

func (x institutionRepo) Get(_ context.Context, id uuid.UUID) (*instModel.Institution, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	m, ok := st.institutions[id]
	if !ok {
		return nil, apperr.NotFound("institution", id.String())
	}
	return m.Clone(), nil
}

func (x institutionRepo) Create(_ context.Context, m *instModel.Institution) error {
	st, unlock := x.r.acquire()
	defer unlock()
	if m.InstitutionID == uuid.Nil {
		m.InstitutionID = uuid.New()
	}
	if m.InstitutionType == "" {
		m.InstitutionType = instModel.InstitutionSchool
	}
	if _, ok := st.institutions[m.InstitutionID]; ok {
		return apperr.Duplicate("institution %s already exists", m.InstitutionID)
	}
	now := time.Now()
	m.InstitutionCreatedAt, m.InstitutionUpdatedAt = now, now
	st.institutions[m.InstitutionID] = m.Clone()
	return nil
}

func (x institutionRepo) Save(_ context.Context, m *instModel.Institution) error {
	st, unlock := x.r.acquire()
	defer unlock()
	if _, ok := st.institutions[m.InstitutionID]; !ok {
		return apperr.NotFound("institution", m.InstitutionID.String())
	}
	m.InstitutionUpdatedAt = time.Now()
	st.institutions[m.InstitutionID] = m.Clone()
	return nil
}

/* =========================
   Fee structures
========================= */

type structureRepo struct{ r *repos }

func (x structureRepo) Get(_ context.Context, institutionID uuid.UUID, year string) (*feeModel.FeeStructure, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	m, ok := st.structures[structureKey{institutionID, year}]
	if !ok {
		return nil, apperr.NotFound("fee structure", year)
	}
	return m.Clone(), nil
}

func (x structureRepo) GetForUpdate(ctx context.Context, institutionID uuid.UUID, year string) (*feeModel.FeeStructure, error) {
	return x.Get(ctx, institutionID, year)
}

func (x structureRepo) List(_ context.Context, institutionID uuid.UUID) ([]*feeModel.FeeStructure, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	out := []*feeModel.FeeStructure{}
	for k, v := range st.structures {
		if k.institutionID == institutionID {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return feeModel.AcademicYearLess(out[i].FeeStructureAcademicYear, out[j].FeeStructureAcademicYear)
	})
	return out, nil
}

func (x structureRepo) Create(_ context.Context, m *feeModel.FeeStructure) error {
	st, unlock := x.r.acquire()
	defer unlock()
	k := structureKey{m.FeeStructureInstitutionID, m.FeeStructureAcademicYear}
	if _, ok := st.structures[k]; ok {
		return apperr.Duplicate("academic year %s already exists", m.FeeStructureAcademicYear)
	}
	if m.FeeStructureID == uuid.Nil {
		m.FeeStructureID = uuid.New()
	}
	now := time.Now()
	m.FeeStructureCreatedAt, m.FeeStructureUpdatedAt = now, now
	st.structures[k] = m.Clone()
	return nil
}

func (x structureRepo) Save(_ context.Context, m *feeModel.FeeStructure) error {
	st, unlock := x.r.acquire()
	defer unlock()
	k := structureKey{m.FeeStructureInstitutionID, m.FeeStructureAcademicYear}
	if _, ok := st.structures[k]; !ok {
		return apperr.NotFound("fee structure", m.FeeStructureAcademicYear)
	}
	m.FeeStructureUpdatedAt = time.Now()
	st.structures[k] = m.Clone()
	return nil
}

func (x structureRepo) Delete(_ context.Context, institutionID uuid.UUID, year string) (bool, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	k := structureKey{institutionID, year}
	if _, ok := st.structures[k]; !ok {
		return false, nil
	}
	delete(st.structures, k)
	return true, nil
}

/* =========================
   Students
========================= */

type studentRepo struct{ r *repos }

func (x studentRepo) Get(_ context.Context, institutionID, id uuid.UUID) (*studentModel.Student, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	m, ok := st.students[id]
	if !ok || m.StudentInstitutionID != institutionID {
		return nil, apperr.NotFound("student", id.String())
	}
	return m.Clone(), nil
}

func (x studentRepo) GetForUpdate(ctx context.Context, institutionID, id uuid.UUID) (*studentModel.Student, error) {
	return x.Get(ctx, institutionID, id)
}

func (x studentRepo) List(_ context.Context, f store.StudentFilter) ([]*studentModel.Student, int64, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	q := strings.ToLower(strings.TrimSpace(f.Search))
	rows := []*studentModel.Student{}
	for _, s := range st.students {
		if s.StudentInstitutionID != f.InstitutionID {
			continue
		}
		if f.Class != "" && !feeModel.SameName(s.StudentClass, f.Class) {
			continue
		}
		if f.Division != "" && !strings.EqualFold(s.StudentDivision, f.Division) {
			continue
		}
		if f.AcademicYear != "" && s.StudentAcademicYear != f.AcademicYear {
			continue
		}
		if f.Status != "" && s.StudentStatus != f.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(s.StudentFeeID+" "+s.StudentFname+" "+s.StudentLname), q) {
			continue
		}
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentFeeID < rows[j].StudentFeeID })
	total := int64(len(rows))
	out := []*studentModel.Student{}
	for _, s := range window(rows, f.Page) {
		out = append(out, s.Clone())
	}
	return out, total, nil
}

func (x studentRepo) Create(_ context.Context, m *studentModel.Student) error {
	st, unlock := x.r.acquire()
	defer unlock()
	for _, s := range st.students {
		if s.StudentInstitutionID == m.StudentInstitutionID && s.StudentFeeID == m.StudentFeeID {
			return apperr.Duplicate("fee id %s already in use", m.StudentFeeID)
		}
	}
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	if m.StudentStatus == "" {
		m.StudentStatus = studentModel.StudentActive
	}
	now := time.Now()
	m.StudentCreatedAt, m.StudentUpdatedAt = now, now
	st.students[m.StudentID] = m.Clone()
	return nil
}

func (x studentRepo) Save(_ context.Context, m *studentModel.Student) error {
	st, unlock := x.r.acquire()
	defer unlock()
	old, ok := st.students[m.StudentID]
	if !ok || old.StudentInstitutionID != m.StudentInstitutionID {
		return apperr.NotFound("student", m.StudentID.String())
	}
	for _, s := range st.students {
		if s.StudentID != m.StudentID && s.StudentInstitutionID == m.StudentInstitutionID && s.StudentFeeID == m.StudentFeeID {
			return apperr.Duplicate("fee id %s already in use", m.StudentFeeID)
		}
	}
	m.StudentUpdatedAt = time.Now()
	st.students[m.StudentID] = m.Clone()
	return nil
}

func (x studentRepo) Delete(_ context.Context, institutionID, id uuid.UUID) (bool, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	m, ok := st.students[id]
	if !ok || m.StudentInstitutionID != institutionID {
		return false, nil
	}
	delete(st.students, id)
	return true, nil
}

/* =========================
   Fee transactions
========================= */

type transactionRepo struct{ r *repos }

func (x transactionRepo) Create(_ context.Context, m *payModel.FeeTransaction) error {
	st, unlock := x.r.acquire()
	defer unlock()
	for _, t := range st.transactions {
		if t.FeeTransactionReceiptID == m.FeeTransactionReceiptID {
			return apperr.Duplicate("receipt %s already exists", m.FeeTransactionReceiptID)
		}
		if m.FeeTransactionIdempotencyKey != nil && t.FeeTransactionIdempotencyKey != nil &&
			t.FeeTransactionInstitutionID == m.FeeTransactionInstitutionID &&
			*t.FeeTransactionIdempotencyKey == *m.FeeTransactionIdempotencyKey {
			return apperr.Duplicate("idempotency key %s already used", *m.FeeTransactionIdempotencyKey)
		}
	}
	if m.FeeTransactionID == uuid.Nil {
		m.FeeTransactionID = uuid.New()
	}
	st.transactions = append(st.transactions, m.Clone())
	return nil
}

func (x transactionRepo) GetByReceiptID(_ context.Context, institutionID uuid.UUID, receiptID string) (*payModel.FeeTransaction, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	for _, t := range st.transactions {
		if t.FeeTransactionInstitutionID == institutionID && t.FeeTransactionReceiptID == receiptID {
			return t.Clone(), nil
		}
	}
	return nil, apperr.NotFound("receipt", receiptID)
}

func (x transactionRepo) GetByIdempotencyKey(_ context.Context, institutionID uuid.UUID, key string) (*payModel.FeeTransaction, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	for _, t := range st.transactions {
		if t.FeeTransactionInstitutionID == institutionID && t.FeeTransactionIdempotencyKey != nil && *t.FeeTransactionIdempotencyKey == key {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (x transactionRepo) SumAmounts(_ context.Context, institutionID, studentID uuid.UUID, cat feeModel.FeeCategory, year string) (decimal.Decimal, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	sum := decimal.Zero
	for _, t := range st.transactions {
		if t.FeeTransactionInstitutionID == institutionID && t.FeeTransactionStudentID == studentID &&
			t.FeeTransactionCategory == cat && t.FeeTransactionAcademicYear == year {
			sum = sum.Add(t.FeeTransactionAmount)
		}
	}
	return sum, nil
}

func (x transactionRepo) Totals(_ context.Context, institutionID, studentID uuid.UUID) ([]store.CategoryTotal, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	type key struct {
		year string
		cat  feeModel.FeeCategory
	}
	acc := map[key]*store.CategoryTotal{}
	for _, t := range st.transactions {
		if t.FeeTransactionInstitutionID != institutionID || t.FeeTransactionStudentID != studentID {
			continue
		}
		k := key{t.FeeTransactionAcademicYear, t.FeeTransactionCategory}
		ct, ok := acc[k]
		if !ok {
			ct = &store.CategoryTotal{AcademicYear: k.year, Category: k.cat, Paid: decimal.Zero}
			acc[k] = ct
		}
		ct.Paid = ct.Paid.Add(t.FeeTransactionAmount)
		ct.Count++
	}
	out := make([]store.CategoryTotal, 0, len(acc))
	for _, v := range acc {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AcademicYear != out[j].AcademicYear {
			return out[i].AcademicYear < out[j].AcademicYear
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (x transactionRepo) List(_ context.Context, f store.TransactionFilter) ([]*payModel.FeeTransaction, int64, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	rows := []*payModel.FeeTransaction{}
	for i := len(st.transactions) - 1; i >= 0; i-- {
		t := st.transactions[i]
		if t.FeeTransactionInstitutionID != f.InstitutionID {
			continue
		}
		if f.StudentID != nil && t.FeeTransactionStudentID != *f.StudentID {
			continue
		}
		if f.Category != "" && t.FeeTransactionCategory != f.Category {
			continue
		}
		if f.AcademicYear != "" && t.FeeTransactionAcademicYear != f.AcademicYear {
			continue
		}
		if f.From != nil && t.FeeTransactionTimestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && !t.FeeTransactionTimestamp.Before(*f.To) {
			continue
		}
		rows = append(rows, t)
	}
	total := int64(len(rows))
	out := []*payModel.FeeTransaction{}
	for _, t := range window(rows, f.Page) {
		out = append(out, t.Clone())
	}
	return out, total, nil
}

/* =========================
   Sequences
========================= */

type sequenceRepo struct{ r *repos }

func (x sequenceRepo) Next(_ context.Context, institutionID uuid.UUID, name string) (int64, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	k := sequenceKey{institutionID, name}
	st.sequences[k]++
	return st.sequences[k], nil
}

/* =========================
   Checkouts
========================= */

type checkoutRepo struct{ r *repos }

func (x checkoutRepo) Create(_ context.Context, m *payModel.PaymentCheckout) error {
	st, unlock := x.r.acquire()
	defer unlock()
	if _, ok := st.checkouts[m.PaymentCheckoutOrderID]; ok {
		return apperr.Duplicate("order %s already exists", m.PaymentCheckoutOrderID)
	}
	if m.PaymentCheckoutID == uuid.Nil {
		m.PaymentCheckoutID = uuid.New()
	}
	now := time.Now()
	m.PaymentCheckoutCreatedAt, m.PaymentCheckoutUpdatedAt = now, now
	st.checkouts[m.PaymentCheckoutOrderID] = m.Clone()
	return nil
}

func (x checkoutRepo) GetByOrderID(_ context.Context, orderID string) (*payModel.PaymentCheckout, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	m, ok := st.checkouts[orderID]
	if !ok {
		return nil, apperr.NotFound("checkout", orderID)
	}
	return m.Clone(), nil
}

func (x checkoutRepo) GetByOrderIDForUpdate(ctx context.Context, orderID string) (*payModel.PaymentCheckout, error) {
	return x.GetByOrderID(ctx, orderID)
}

func (x checkoutRepo) Save(_ context.Context, m *payModel.PaymentCheckout) error {
	st, unlock := x.r.acquire()
	defer unlock()
	if _, ok := st.checkouts[m.PaymentCheckoutOrderID]; !ok {
		return apperr.NotFound("checkout", m.PaymentCheckoutOrderID)
	}
	m.PaymentCheckoutUpdatedAt = time.Now()
	st.checkouts[m.PaymentCheckoutOrderID] = m.Clone()
	return nil
}

func (x checkoutRepo) ListByStudent(_ context.Context, institutionID, studentID uuid.UUID) ([]*payModel.PaymentCheckout, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	out := []*payModel.PaymentCheckout{}
	for _, c := range st.checkouts {
		if c.PaymentCheckoutInstitutionID == institutionID && c.PaymentCheckoutStudentID == studentID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentCheckoutCreatedAt.After(out[j].PaymentCheckoutCreatedAt) })
	return out, nil
}

func (x checkoutRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	var n int64
	for k, c := range st.checkouts {
		if c.PaymentCheckoutStatus == payModel.CheckoutPending && c.PaymentCheckoutExpiresAt.Before(now) {
			cp := c.Clone()
			cp.PaymentCheckoutStatus = payModel.CheckoutExpired
			cp.PaymentCheckoutUpdatedAt = now
			st.checkouts[k] = cp
			n++
		}
	}
	return n, nil
}

/* =========================
   Stock
========================= */

type stockRepo struct{ r *repos }

func sameItemKey(a, b *stockModel.StockItem) bool {
	return a.StockItemInstitutionID == b.StockItemInstitutionID &&
		a.StockItemName == b.StockItemName &&
		a.StockItemFromClass == b.StockItemFromClass &&
		a.StockItemToClass == b.StockItemToClass &&
		a.StockItemCategory == b.StockItemCategory
}

func (x stockRepo) CreateItem(_ context.Context, m *stockModel.StockItem) error {
	st, unlock := x.r.acquire()
	defer unlock()
	for _, it := range st.items {
		if sameItemKey(it, m) {
			return apperr.Duplicate("stock item %q (%s-%s, %s) already exists", m.StockItemName, m.StockItemFromClass, m.StockItemToClass, m.StockItemCategory)
		}
	}
	if m.StockItemID == uuid.Nil {
		m.StockItemID = uuid.New()
	}
	now := time.Now()
	m.StockItemCreatedAt, m.StockItemUpdatedAt = now, now
	st.items[m.StockItemID] = m.Clone()
	return nil
}

func (x stockRepo) GetItem(_ context.Context, institutionID, id uuid.UUID) (*stockModel.StockItem, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	m, ok := st.items[id]
	if !ok || m.StockItemInstitutionID != institutionID {
		return nil, apperr.NotFound("stock item", id.String())
	}
	return m.Clone(), nil
}

func (x stockRepo) GetItemForUpdate(ctx context.Context, institutionID, id uuid.UUID) (*stockModel.StockItem, error) {
	return x.GetItem(ctx, institutionID, id)
}

func (x stockRepo) FindItemsByName(_ context.Context, institutionID uuid.UUID, name string) ([]*stockModel.StockItem, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	out := []*stockModel.StockItem{}
	for _, it := range st.items {
		if it.StockItemInstitutionID == institutionID && strings.EqualFold(it.StockItemName, name) {
			out = append(out, it.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockItemCreatedAt.Before(out[j].StockItemCreatedAt) })
	return out, nil
}

func (x stockRepo) ListItems(_ context.Context, f store.StockItemFilter) ([]*stockModel.StockItem, int64, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	q := strings.ToLower(strings.TrimSpace(f.Name))
	rows := []*stockModel.StockItem{}
	for _, it := range st.items {
		if it.StockItemInstitutionID != f.InstitutionID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.StockItemName), q) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(it.StockItemCategory, f.Category) {
			continue
		}
		rows = append(rows, it)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StockItemName != rows[j].StockItemName {
			return rows[i].StockItemName < rows[j].StockItemName
		}
		return rows[i].StockItemFromClass < rows[j].StockItemFromClass
	})
	total := int64(len(rows))
	out := []*stockModel.StockItem{}
	for _, it := range window(rows, f.Page) {
		out = append(out, it.Clone())
	}
	return out, total, nil
}

func (x stockRepo) SaveItem(_ context.Context, m *stockModel.StockItem) error {
	st, unlock := x.r.acquire()
	defer unlock()
	old, ok := st.items[m.StockItemID]
	if !ok || old.StockItemInstitutionID != m.StockItemInstitutionID {
		return apperr.NotFound("stock item", m.StockItemID.String())
	}
	for _, it := range st.items {
		if it.StockItemID != m.StockItemID && sameItemKey(it, m) {
			return apperr.Duplicate("stock item %q (%s-%s, %s) already exists", m.StockItemName, m.StockItemFromClass, m.StockItemToClass, m.StockItemCategory)
		}
	}
	m.StockItemUpdatedAt = time.Now()
	st.items[m.StockItemID] = m.Clone()
	return nil
}

func (x stockRepo) DeleteItem(_ context.Context, institutionID, id uuid.UUID) (bool, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	m, ok := st.items[id]
	if !ok || m.StockItemInstitutionID != institutionID {
		return false, nil
	}
	delete(st.items, id)
	return true, nil
}

func (x stockRepo) CreateSale(_ context.Context, m *stockModel.StockSale) error {
	st, unlock := x.r.acquire()
	defer unlock()
	for _, s := range st.sales {
		if s.StockSaleReceiptID == m.StockSaleReceiptID {
			return apperr.Duplicate("receipt %s already exists", m.StockSaleReceiptID)
		}
	}
	if m.StockSaleID == uuid.Nil {
		m.StockSaleID = uuid.New()
	}
	st.sales = append(st.sales, m.Clone())
	return nil
}

func (x stockRepo) GetSaleByReceiptID(_ context.Context, institutionID uuid.UUID, receiptID string) (*stockModel.StockSale, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	for _, s := range st.sales {
		if s.StockSaleInstitutionID == institutionID && s.StockSaleReceiptID == receiptID {
			return s.Clone(), nil
		}
	}
	return nil, apperr.NotFound("receipt", receiptID)
}

func (x stockRepo) ListSales(_ context.Context, f store.StockSaleFilter) ([]*stockModel.StockSale, int64, error) {
	st, unlock := x.r.acquire()
	defer unlock()
	rows := []*stockModel.StockSale{}
	for i := len(st.sales) - 1; i >= 0; i-- {
		s := st.sales[i]
		if s.StockSaleInstitutionID != f.InstitutionID {
			continue
		}
		if f.StudentID != nil && s.StockSaleStudentID != *f.StudentID {
			continue
		}
		rows = append(rows, s)
	}
	total := int64(len(rows))
	out := []*stockModel.StockSale{}
	for _, s := range window(rows, f.Page) {
		out = append(out, s.Clone())
	}
	return out, total, nil
}
