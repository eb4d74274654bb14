package memstore

import (
	"context"
	"errors"
	"testing"

	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	"schoolfee_backend/internals/features/finance/store"
	studentModel "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStudent(t *testing.T, s *Store) *studentModel.Student {
	t.Helper()
	ctx := context.Background()
	inst := &instModel.Institution{InstitutionName: "Green Valley"}
	require.NoError(t, s.Institutions().Create(ctx, inst))
	st := &studentModel.Student{StudentInstitutionID: inst.InstitutionID, StudentFeeID: "F-1", StudentFname: "Asha", StudentClass: "Nursery", StudentAcademicYear: "24-25", StudentType: "DS"}
	require.NoError(t, s.Students().Create(ctx, st))
	return st
}

func TestWithinTxDiscardsOnError(t *testing.T) {
	s := New()
	st := seedStudent(t, s)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx store.Repos) error {
		cur, err := tx.Students().GetForUpdate(ctx, st.StudentInstitutionID, st.StudentID)
		require.NoError(t, err)
		cur.ApplyPayment(decimal.NewFromInt(500))
		require.NoError(t, tx.Students().Save(ctx, cur))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Students().Get(ctx, st.StudentInstitutionID, st.StudentID)
	require.NoError(t, err)
	assert.True(t, got.StudentCurrentPaidFee.IsZero())
}

func TestFailNextCommit(t *testing.T) {
	s := New()
	st := seedStudent(t, s)
	ctx := context.Background()

	s.FailNextCommit(errors.New("disk full"))
	err := s.WithinTx(ctx, func(tx store.Repos) error {
		_, err := tx.Sequences().Next(ctx, st.StudentInstitutionID, "fee_receipt")
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrStorage))

	n, err := s.Sequences().Next(ctx, st.StudentInstitutionID, "fee_receipt")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReadsReturnCopies(t *testing.T) {
	s := New()
	st := seedStudent(t, s)
	ctx := context.Background()

	got, err := s.Students().Get(ctx, st.StudentInstitutionID, st.StudentID)
	require.NoError(t, err)
	got.StudentFname = "changed"

	again, err := s.Students().Get(ctx, st.StudentInstitutionID, st.StudentID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", again.StudentFname)
}

func TestStudentsAreTenantScoped(t *testing.T) {
	s := New()
	st := seedStudent(t, s)
	_, err := s.Students().Get(context.Background(), uuid.New(), st.StudentID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDuplicateFeeID(t *testing.T) {
	s := New()
	st := seedStudent(t, s)
	dup := &studentModel.Student{StudentInstitutionID: st.StudentInstitutionID, StudentFeeID: "F-1", StudentFname: "Ravi"}
	err := s.Students().Create(context.Background(), dup)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
}

func TestListPaging(t *testing.T) {
	s := New()
	st := seedStudent(t, s)
	ctx := context.Background()
	for _, id := range []string{"F-2", "F-3", "F-4"} {
		require.NoError(t, s.Students().Create(ctx, &studentModel.Student{StudentInstitutionID: st.StudentInstitutionID, StudentFeeID: id, StudentFname: "x", StudentClass: "KG"}))
	}
	rows, total, err := s.Students().List(ctx, store.StudentFilter{InstitutionID: st.StudentInstitutionID, Page: store.Page{Limit: 2, Offset: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "F-2", rows[0].StudentFeeID)

	rows, total, err = s.Students().List(ctx, store.StudentFilter{InstitutionID: st.StudentInstitutionID, Class: "kg"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 3)
}
