// file: internals/features/finance/store/memstore/memstore.go
package memstore

import (
	"context"
	"sync"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	payModel "schoolfee_backend/internals/features/finance/payments/model"
	stockModel "schoolfee_backend/internals/features/finance/stock/model"
	"schoolfee_backend/internals/features/finance/store"
	studentModel "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
)

/*
Store keeps everything in maps behind one mutex.

Transactions run on a copy of the maps and swap it in on success, so a failing
fn (or an injected commit failure) leaves no trace. Values are cloned on the way
in and out; nothing handed to a caller aliases stored state.
*/
type Store struct {
	mu         sync.Mutex
	data       *state
	failCommit error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newState()}
}

type structureKey struct {
	institutionID uuid.UUID
	academicYear  string
}

type sequenceKey struct {
	institutionID uuid.UUID
	name          string
}

type state struct {
	institutions map[uuid.UUID]*instModel.Institution
	structures   map[structureKey]*feeModel.FeeStructure
	students     map[uuid.UUID]*studentModel.Student
	transactions []*payModel.FeeTransaction // append order
	sequences    map[sequenceKey]int64
	checkouts    map[string]*payModel.PaymentCheckout
	items        map[uuid.UUID]*stockModel.StockItem
	sales        []*stockModel.StockSale
}

func newState() *state {
	return &state{
		institutions: map[uuid.UUID]*instModel.Institution{},
		structures:   map[structureKey]*feeModel.FeeStructure{},
		students:     map[uuid.UUID]*studentModel.Student{},
		sequences:    map[sequenceKey]int64{},
		checkouts:    map[string]*payModel.PaymentCheckout{},
		items:        map[uuid.UUID]*stockModel.StockItem{},
	}
}

// clone copies the containers only; stored values are never mutated in place.
func (s *state) clone() *state {
	cp := &state{
		institutions: make(map[uuid.UUID]*instModel.Institution, len(s.institutions)),
		structures:   make(map[structureKey]*feeModel.FeeStructure, len(s.structures)),
		students:     make(map[uuid.UUID]*studentModel.Student, len(s.students)),
		transactions: append([]*payModel.FeeTransaction(nil), s.transactions...),
		sequences:    make(map[sequenceKey]int64, len(s.sequences)),
		checkouts:    make(map[string]*payModel.PaymentCheckout, len(s.checkouts)),
		items:        make(map[uuid.UUID]*stockModel.StockItem, len(s.items)),
		sales:        append([]*stockModel.StockSale(nil), s.sales...),
	}
	for k, v := range s.institutions {
		cp.institutions[k] = v
	}
	for k, v := range s.structures {
		cp.structures[k] = v
	}
	for k, v := range s.students {
		cp.students[k] = v
	}
	for k, v := range s.sequences {
		cp.sequences[k] = v
	}
	for k, v := range s.checkouts {
		cp.checkouts[k] = v
	}
	for k, v := range s.items {
		cp.items[k] = v
	}
	return cp
}

// FailNextCommit makes the next WithinTx discard its work and return err.
func (m *Store) FailNextCommit(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCommit = err
}

func (m *Store) WithinTx(ctx context.Context, fn func(tx store.Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return apperr.Storage("begin transaction", err)
	}
	work := m.data.clone()
	if err := fn(&repos{st: work, lock: noLock}); err != nil {
		return err
	}
	if m.failCommit != nil {
		err := m.failCommit
		m.failCommit = nil
		return apperr.Storage("commit", err)
	}
	m.data = work
	return nil
}

/* =========================
   Autocommit views
========================= */

func (m *Store) auto() *repos {
	return &repos{st: nil, lock: func() (*state, func()) {
		m.mu.Lock()
		return m.data, m.mu.Unlock
	}}
}

func (m *Store) Institutions() store.InstitutionRepo   { return institutionRepo{m.auto()} }
func (m *Store) FeeStructures() store.FeeStructureRepo { return structureRepo{m.auto()} }
func (m *Store) Students() store.StudentRepo           { return studentRepo{m.auto()} }
func (m *Store) Transactions() store.TransactionRepo   { return transactionRepo{m.auto()} }
func (m *Store) Sequences() store.SequenceRepo         { return sequenceRepo{m.auto()} }
func (m *Store) Checkouts() store.CheckoutRepo         { return checkoutRepo{m.auto()} }
func (m *Store) Stock() store.StockRepo                { return stockRepo{m.auto()} }

/* =========================
   Transactional views
========================= */

// repos binds the repositories to a state. Inside a transaction the state is the
// private working copy and lock is a no-op; outside, lock takes the store mutex.
type repos struct {
	st   *state
	lock func() (*state, func())
}

func noLock() (*state, func()) { return nil, func() {} }

func (r *repos) acquire() (*state, func()) {
	st, unlock := r.lock()
	if st == nil {
		st = r.st
	}
	return st, unlock
}

func (r *repos) Institutions() store.InstitutionRepo   { return institutionRepo{r} }
func (r *repos) FeeStructures() store.FeeStructureRepo { return structureRepo{r} }
func (r *repos) Students() store.StudentRepo           { return studentRepo{r} }
func (r *repos) Transactions() store.TransactionRepo   { return transactionRepo{r} }
func (r *repos) Sequences() store.SequenceRepo         { return sequenceRepo{r} }
func (r *repos) Checkouts() store.CheckoutRepo         { return checkoutRepo{r} }
func (r *repos) Stock() store.StockRepo                { return stockRepo{r} }

func window[T any](rows []T, p store.Page) []T {
	if p.Offset > 0 {
		if p.Offset >= len(rows) {
			return []T{}
		}
		rows = rows[p.Offset:]
	}
	if p.Limit > 0 && len(rows) > p.Limit {
		rows = rows[:p.Limit]
	}
	return rows
}
