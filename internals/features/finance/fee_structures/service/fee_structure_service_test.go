package service

import (
	"context"
	"errors"
	"testing"
	"time"

	model "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	"schoolfee_backend/internals/features/finance/store/memstore"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amounts(kv ...any) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for i := 0; i < len(kv); i += 2 {
		out[kv[i].(string)] = decimal.NewFromInt(int64(kv[i+1].(int)))
	}
	return out
}

func setup(t *testing.T, ttl time.Duration) (*FeeStructureService, *memstore.Store, uuid.UUID) {
	t.Helper()
	st := memstore.New()
	inst := &instModel.Institution{InstitutionName: "Green Valley School"}
	require.NoError(t, st.Institutions().Create(context.Background(), inst))
	return NewFeeStructureService(st, ttl, nil), st, inst.InstitutionID
}

func TestCreateAcademicYearValidatesAndRejectsDuplicates(t *testing.T) {
	svc, _, inst := setup(t, 0)
	ctx := context.Background()

	_, err := svc.CreateAcademicYear(ctx, inst, "2024-25", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.CreateAcademicYear(ctx, inst, "24-26", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.CreateAcademicYear(ctx, inst, "24-25", "")
	require.NoError(t, err)
	_, err = svc.CreateAcademicYear(ctx, inst, "24-25", "")
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = svc.CreateAcademicYear(ctx, uuid.New(), "24-25", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpsertStudentTypeReplacesAmounts(t *testing.T) {
	svc, _, inst := setup(t, 0)
	ctx := context.Background()
	_, err := svc.CreateAcademicYear(ctx, inst, "24-25", "")
	require.NoError(t, err)
	_, err = svc.UpsertClass(ctx, inst, "24-25", "Nursery")
	require.NoError(t, err)

	_, err = svc.UpsertStudentType(ctx, inst, "24-25", "Nursery", StudentTypeInput{Name: "DS", FeeAmounts: amounts("Admission", 1200, "Tuition", 10000)})
	require.NoError(t, err)
	m, err := svc.UpsertStudentType(ctx, inst, "24-25", "nursery", StudentTypeInput{Name: "DS", FeeAmounts: amounts("Tuition", 9000)})
	require.NoError(t, err)

	c, ok := m.FindClass("Nursery")
	require.True(t, ok)
	require.Len(t, c.StudentTypes, 1)
	assert.Equal(t, "9000", c.StudentTypes[0].Total().String())
	_, hasAdmission := c.StudentTypes[0].FeeAmounts["Admission"]
	assert.False(t, hasAdmission)
	assert.Equal(t, int64(3), m.FeeStructureVersion)
}

func TestUpsertStudentTypeErrors(t *testing.T) {
	svc, _, inst := setup(t, 0)
	ctx := context.Background()
	_, err := svc.CreateAcademicYear(ctx, inst, "24-25", "")
	require.NoError(t, err)

	_, err = svc.UpsertStudentType(ctx, inst, "24-25", "Nursery", StudentTypeInput{Name: "DS", FeeAmounts: amounts("Tuition", 1)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpsertClass(ctx, inst, "24-25", "Nursery")
	require.NoError(t, err)
	_, err = svc.UpsertStudentType(ctx, inst, "24-25", "Nursery", StudentTypeInput{Name: "DS", FeeAmounts: amounts("Tuition", -5)})
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "fee_amounts.Tuition")

	_, err = svc.UpsertClass(ctx, inst, "24-25", " NURSERY ")
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
}

func TestDeletesAreIdempotent(t *testing.T) {
	svc, _, inst := setup(t, 0)
	ctx := context.Background()
	_, err := svc.CreateAcademicYear(ctx, inst, "24-25", "")
	require.NoError(t, err)
	_, err = svc.UpsertClass(ctx, inst, "24-25", "LKG")
	require.NoError(t, err)

	m, err := svc.DeleteStudentType(ctx, inst, "24-25", "LKG", "DSS", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.FeeStructureVersion)

	m, err = svc.DeleteClass(ctx, inst, "24-25", "LKG")
	require.NoError(t, err)
	assert.Empty(t, m.Classes())
	_, err = svc.DeleteClass(ctx, inst, "24-25", "LKG")
	require.NoError(t, err)
}

func TestWritesProjectLatestYearOntoInstitution(t *testing.T) {
	svc, st, inst := setup(t, 0)
	ctx := context.Background()

	_, err := svc.CreateAcademicYear(ctx, inst, "23-24", "")
	require.NoError(t, err)
	_, err = svc.UpsertClass(ctx, inst, "23-24", "Old Class")
	require.NoError(t, err)
	_, err = svc.CreateAcademicYear(ctx, inst, "24-25", "23-24")
	require.NoError(t, err)
	_, err = svc.UpsertClass(ctx, inst, "24-25", "New Class")
	require.NoError(t, err)

	got, err := st.Institutions().Get(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, "24-25", got.InstitutionLatestAcademicYear)
	assert.Equal(t, []string{"Old Class", "New Class"}, []string(got.InstitutionClassNames))

	// editing an older year keeps the latest projection
	_, err = svc.UpsertClass(ctx, inst, "23-24", "Another")
	require.NoError(t, err)
	got, _ = st.Institutions().Get(ctx, inst)
	assert.Equal(t, "24-25", got.InstitutionLatestAcademicYear)

	require.NoError(t, svc.DeleteAcademicYear(ctx, inst, "24-25"))
	got, _ = st.Institutions().Get(ctx, inst)
	assert.Equal(t, "23-24", got.InstitutionLatestAcademicYear)
	assert.Equal(t, []string{"Old Class", "Another"}, []string(got.InstitutionClassNames))

	assert.ErrorIs(t, svc.DeleteAcademicYear(ctx, inst, "24-25"), apperr.ErrNotFound)
}

func TestCopyFromDoesNotAliasSource(t *testing.T) {
	svc, _, inst := setup(t, 0)
	ctx := context.Background()
	_, err := svc.CreateAcademicYear(ctx, inst, "23-24", "")
	require.NoError(t, err)
	_, err = svc.UpsertClass(ctx, inst, "23-24", "Nursery")
	require.NoError(t, err)
	_, err = svc.UpsertStudentType(ctx, inst, "23-24", "Nursery", StudentTypeInput{Name: "DS", FeeAmounts: amounts("Tuition", 100)})
	require.NoError(t, err)

	_, err = svc.CreateAcademicYear(ctx, inst, "24-25", "23-24")
	require.NoError(t, err)
	_, err = svc.UpsertStudentType(ctx, inst, "24-25", "Nursery", StudentTypeInput{Name: "DS", FeeAmounts: amounts("Tuition", 200)})
	require.NoError(t, err)

	old, err := svc.GetStructure(ctx, inst, "23-24")
	require.NoError(t, err)
	st, ok := old.FindStudentType("Nursery", "DS", false)
	require.True(t, ok)
	assert.Equal(t, "100", st.Total().String())

	_, err = svc.CreateAcademicYear(ctx, inst, "25-26", "22-23")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCacheServesCopiesAndInvalidatesOnWrite(t *testing.T) {
	svc, _, inst := setup(t, time.Minute)
	ctx := context.Background()
	_, err := svc.CreateAcademicYear(ctx, inst, "24-25", "")
	require.NoError(t, err)

	first, err := svc.GetStructure(ctx, inst, "24-25")
	require.NoError(t, err)
	first.SetClasses([]model.FeeClass{{Name: "Tampered"}})

	again, err := svc.GetStructure(ctx, inst, "24-25")
	require.NoError(t, err)
	assert.Empty(t, again.Classes())

	_, err = svc.UpsertClass(ctx, inst, "24-25", "Nursery")
	require.NoError(t, err)
	fresh, err := svc.GetStructure(ctx, inst, "24-25")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nursery"}, fresh.ClassNames())
}

func TestCacheExpiresAndIgnoresStalePuts(t *testing.T) {
	c := newStructureCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	k := cacheKey{uuid.New(), "24-25"}

	_, gen, ok := c.get(k)
	assert.False(t, ok)
	c.invalidate(k) // a write lands between the miss and the put
	c.put(k, gen, model.NewFeeStructure(k.institutionID, k.academicYear, nil))
	_, _, ok = c.get(k)
	assert.False(t, ok)

	_, gen, _ = c.get(k)
	c.put(k, gen, model.NewFeeStructure(k.institutionID, k.academicYear, nil))
	_, _, ok = c.get(k)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, _, ok = c.get(k)
	assert.False(t, ok)
}
