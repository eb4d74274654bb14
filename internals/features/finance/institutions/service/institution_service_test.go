package service

import (
	"context"
	"testing"

	model "schoolfee_backend/internals/features/finance/institutions/model"
	studentModel "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/store/memstore"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestCreateAndUpdateInstitution(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewInstitutionService(st, nil)

	m, err := svc.Create(ctx, ProfileInput{Name: ptr(" Green Valley "), Email: ptr("office@gv.example")})
	require.NoError(t, err)
	assert.Equal(t, "Green Valley", m.InstitutionName)
	assert.Equal(t, model.InstitutionSchool, m.InstitutionType)

	_, err = svc.Create(ctx, ProfileInput{Name: ptr("X"), Type: ptr("academy")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, ProfileInput{Name: ptr("X"), Email: ptr("nope")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.Update(ctx, m.InstitutionID, ProfileInput{Type: ptr("College"), Phone: ptr("020-555")})
	require.NoError(t, err)
	assert.Equal(t, model.InstitutionCollege, got.InstitutionType)
	assert.Equal(t, "020-555", got.InstitutionPhone)

	_, err = svc.Update(ctx, m.InstitutionID, ProfileInput{Name: ptr(" ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Update(ctx, uuid.New(), ProfileInput{Name: ptr("Y")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTypeLockedOnceStudentsExist(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewInstitutionService(st, nil)
	m, err := svc.Create(ctx, ProfileInput{Name: ptr("Green Valley")})
	require.NoError(t, err)
	require.NoError(t, st.Students().Create(ctx, &studentModel.Student{
		StudentInstitutionID: m.InstitutionID, StudentFeeID: "GV-1", StudentFname: "Asha",
		StudentClass: "Nursery", StudentAcademicYear: "24-25", StudentType: "DS",
	}))

	_, err = svc.Update(ctx, m.InstitutionID, ProfileInput{Type: ptr("college")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.Update(ctx, m.InstitutionID, ProfileInput{Address: ptr("Pune")})
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.InstitutionAddress)
}
