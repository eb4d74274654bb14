// file: internals/features/finance/store/gormstore/gormstore.go
package gormstore

import (
	"context"
	"errors"
	"time"

	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

type Store struct {
	db         *gorm.DB
	maxRetries int
	log        *zap.Logger
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB, maxRetries int, log *zap.Logger) *Store {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, maxRetries: maxRetries, log: log}
}

/*
WithinTx runs fn in a database transaction. Serialization failures and
deadlocks roll back and run fn again, up to maxRetries attempts; after that
the caller gets a Conflict.
*/
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Repos) error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&repos{db: tx})
		})
		if err == nil || !retryable(err) {
			break
		}
		s.log.Warn("transaction retry",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return apperr.Storage("transaction", ctx.Err())
			case <-time.After(time.Duration(attempt*attempt) * 10 * time.Millisecond):
			}
		}
	}
	if err == nil {
		return nil
	}
	if retryable(err) {
		return apperr.Conflict(err)
	}
	return apperr.Storage("transaction", err)
}

func (s *Store) repos() *repos { return &repos{db: s.db} }

func (s *Store) Institutions() store.InstitutionRepo   { return s.repos().Institutions() }
func (s *Store) FeeStructures() store.FeeStructureRepo { return s.repos().FeeStructures() }
func (s *Store) Students() store.StudentRepo           { return s.repos().Students() }
func (s *Store) Transactions() store.TransactionRepo   { return s.repos().Transactions() }
func (s *Store) Sequences() store.SequenceRepo         { return s.repos().Sequences() }
func (s *Store) Checkouts() store.CheckoutRepo         { return s.repos().Checkouts() }
func (s *Store) Stock() store.StockRepo                { return s.repos().Stock() }

type repos struct{ db *gorm.DB }

func (r *repos) Institutions() store.InstitutionRepo   { return institutionRepo{r.db} }
func (r *repos) FeeStructures() store.FeeStructureRepo { return structureRepo{r.db} }
func (r *repos) Students() store.StudentRepo           { return studentRepo{r.db} }
func (r *repos) Transactions() store.TransactionRepo   { return transactionRepo{r.db} }
func (r *repos) Sequences() store.SequenceRepo         { return sequenceRepo{r.db} }
func (r *repos) Checkouts() store.CheckoutRepo         { return checkoutRepo{r.db} }
func (r *repos) Stock() store.StockRepo                { return stockRepo{r.db} }

/* =========================
   PG error mapping (pgx / lib/pq)
========================= */

func pgCode(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func retryable(err error) bool {
	switch pgCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

// mapErr classifies a driver error. Retryable errors stay raw so WithinTx can see them.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if retryable(err) {
		return err
	}
	if pgCode(err) == pgUniqueViolation {
		var pgxErr *pgconn.PgError
		if errors.As(err, &pgxErr) && pgxErr.ConstraintName != "" {
			return apperr.Duplicate("%s: %s", op, pgxErr.ConstraintName)
		}
		return apperr.Duplicate("%s: already exists", op)
	}
	return apperr.Storage(op, err)
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func paged(db *gorm.DB, p store.Page) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}
