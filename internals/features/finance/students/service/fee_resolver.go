// file: internals/features/finance/students/service/fee_resolver.go
package service

import (
	"context"
	"errors"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	model "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StructureReader is the read side of the fee-structure store; inside a
// transaction it is the tx-bound repository.
type StructureReader interface {
	Get(ctx context.Context, institutionID uuid.UUID, academicYear string) (*feeModel.FeeStructure, error)
}

// FeeQuery addresses one student-type entry of a fee structure.
type FeeQuery struct {
	InstitutionID uuid.UUID
	AcademicYear  string
	ClassName     string
	StudentType   string
	SemiEnglish   bool
}

// QueryFor builds the query for a student's class/type/medium in the given year.
func QueryFor(s *model.Student, academicYear string) FeeQuery {
	if academicYear == "" {
		academicYear = s.StudentAcademicYear
	}
	return FeeQuery{
		InstitutionID: s.StudentInstitutionID,
		AcademicYear:  academicYear,
		ClassName:     s.StudentClass,
		StudentType:   s.StudentType,
		SemiEnglish:   s.StudentSemiEnglish,
	}
}

type FeeResolver struct {
	reader StructureReader
	log    *zap.Logger
}

func NewFeeResolver(r StructureReader, log *zap.Logger) *FeeResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeeResolver{reader: r, log: log}
}

// ResolveBaseFee is the total of the student's own type. A missing year, class
// or type is NotConfigured, never zero.
func (f *FeeResolver) ResolveBaseFee(ctx context.Context, q FeeQuery) (decimal.Decimal, error) {
	own, _, err := f.entries(ctx, q)
	if err != nil {
		return decimal.Zero, err
	}
	return own.Total(), nil
}

// ResolveCategoryFee sums only the fee types of one category.
func (f *FeeResolver) ResolveCategoryFee(ctx context.Context, q FeeQuery, cat feeModel.FeeCategory) (decimal.Decimal, error) {
	own, _, err := f.entries(ctx, q)
	if err != nil {
		return decimal.Zero, err
	}
	return own.TotalFor(cat), nil
}

// ComputeDiscount is full-type total minus own total, floored at zero.
func (f *FeeResolver) ComputeDiscount(ctx context.Context, q FeeQuery) (decimal.Decimal, error) {
	own, full, err := f.entries(ctx, q)
	if err != nil {
		return decimal.Zero, err
	}
	if full == nil {
		return decimal.Zero, nil
	}
	return floorZero(full.Total().Sub(own.Total())), nil
}

func (f *FeeResolver) ComputeCategoryDiscount(ctx context.Context, q FeeQuery, cat feeModel.FeeCategory) (decimal.Decimal, error) {
	own, full, err := f.entries(ctx, q)
	if err != nil {
		return decimal.Zero, err
	}
	if full == nil {
		return decimal.Zero, nil
	}
	return floorZero(full.TotalFor(cat).Sub(own.TotalFor(cat))), nil
}

// entries returns the student's own entry and the full-type entry of the same
// class and medium (nil when the full type is not configured).
func (f *FeeResolver) entries(ctx context.Context, q FeeQuery) (feeModel.StudentTypeFee, *feeModel.StudentTypeFee, error) {
	fs, err := f.reader.Get(ctx, q.InstitutionID, q.AcademicYear)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return feeModel.StudentTypeFee{}, nil, apperr.NotConfigured("no fee structure for academic year %s", q.AcademicYear)
		}
		return feeModel.StudentTypeFee{}, nil, err
	}
	class, ok := fs.FindClass(q.ClassName)
	if !ok {
		return feeModel.StudentTypeFee{}, nil, apperr.NotConfigured("class %q has no fees in %s", q.ClassName, q.AcademicYear)
	}
	own, ok := class.FindStudentType(q.StudentType, q.SemiEnglish)
	if !ok {
		return feeModel.StudentTypeFee{}, nil, apperr.NotConfigured("student type %q (%s) has no fees in class %q, %s",
			q.StudentType, mediumLabel(q.SemiEnglish), q.ClassName, q.AcademicYear)
	}
	full, ok := class.FindStudentType(feeModel.CanonicalFullType, q.SemiEnglish)
	if !ok {
		f.log.Warn("full student type missing, discount is zero",
			zap.String("institution_id", q.InstitutionID.String()),
			zap.String("academic_year", q.AcademicYear),
			zap.String("class", q.ClassName),
			zap.Bool("semi_english", q.SemiEnglish),
		)
		return own, nil, nil
	}
	return own, &full, nil
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func mediumLabel(semi bool) string {
	if semi {
		return "Semi-English"
	}
	return "English"
}
