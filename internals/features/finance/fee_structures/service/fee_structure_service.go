// file: internals/features/finance/fee_structures/service/fee_structure_service.go
package service

import (
	"context"
	"fmt"
	"time"

	model "schoolfee_backend/internals/features/finance/fee_structures/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type FeeStructureService struct {
	store store.Store
	cache *structureCache
	log   *zap.Logger
}

func NewFeeStructureService(st store.Store, cacheTTL time.Duration, log *zap.Logger) *FeeStructureService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeeStructureService{store: st, cache: newStructureCache(cacheTTL), log: log}
}

// StudentTypeInput is one (name, medium) row with its already coerced amounts.
type StudentTypeInput struct {
	Name        string
	SemiEnglish bool
	FeeAmounts  map[string]decimal.Decimal
}

func checkYear(field, year string) error {
	if !model.ValidAcademicYear(year) {
		return apperr.Field(field, "must be YY-YY with consecutive years, e.g. 24-25")
	}
	return nil
}

/* =========================
   Reads
========================= */

// GetStructure serves from the cache when possible. The result is a private copy.
func (s *FeeStructureService) GetStructure(ctx context.Context, institutionID uuid.UUID, academicYear string) (*model.FeeStructure, error) {
	if err := checkYear("academic_year", academicYear); err != nil {
		return nil, err
	}
	k := cacheKey{institutionID, academicYear}
	var gen uint64
	if s.cache.enabled() {
		v, g, ok := s.cache.get(k)
		if ok {
			return v, nil
		}
		gen = g
	}
	m, err := s.store.FeeStructures().Get(ctx, institutionID, academicYear)
	if err != nil {
		return nil, err
	}
	if s.cache.enabled() {
		s.cache.put(k, gen, m)
	}
	return m, nil
}

func (s *FeeStructureService) ListStructures(ctx context.Context, institutionID uuid.UUID) ([]*model.FeeStructure, error) {
	return s.store.FeeStructures().List(ctx, institutionID)
}

/* =========================
   Academic years
========================= */

// CreateAcademicYear adds an empty structure, or a copy of copyFrom's classes.
func (s *FeeStructureService) CreateAcademicYear(ctx context.Context, institutionID uuid.UUID, academicYear, copyFrom string) (*model.FeeStructure, error) {
	if err := checkYear("academic_year", academicYear); err != nil {
		return nil, err
	}
	if copyFrom != "" {
		if err := checkYear("copy_from", copyFrom); err != nil {
			return nil, err
		}
	}

	var out *model.FeeStructure
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		if _, err := tx.Institutions().Get(ctx, institutionID); err != nil {
			return err
		}
		var classes []model.FeeClass
		if copyFrom != "" {
			src, err := tx.FeeStructures().Get(ctx, institutionID, copyFrom)
			if err != nil {
				return err
			}
			classes = src.Clone().Classes()
		}
		m := model.NewFeeStructure(institutionID, academicYear, classes)
		if err := tx.FeeStructures().Create(ctx, m); err != nil {
			return err
		}
		out = m
		return projectClassNames(ctx, tx, institutionID)
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(cacheKey{institutionID, academicYear})
	s.log.Info("academic year created",
		zap.String("institution_id", institutionID.String()),
		zap.String("academic_year", academicYear),
		zap.String("copy_from", copyFrom),
	)
	return out, nil
}

// DeleteAcademicYear removes the whole structure. There is no soft delete.
func (s *FeeStructureService) DeleteAcademicYear(ctx context.Context, institutionID uuid.UUID, academicYear string) error {
	if err := checkYear("academic_year", academicYear); err != nil {
		return err
	}
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		ok, err := tx.FeeStructures().Delete(ctx, institutionID, academicYear)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("fee structure", academicYear)
		}
		return projectClassNames(ctx, tx, institutionID)
	})
	if err != nil {
		return err
	}
	s.cache.invalidate(cacheKey{institutionID, academicYear})
	s.log.Warn("academic year deleted",
		zap.String("institution_id", institutionID.String()),
		zap.String("academic_year", academicYear),
	)
	return nil
}

/* =========================
   Classes & student types
========================= */

func (s *FeeStructureService) UpsertClass(ctx context.Context, institutionID uuid.UUID, academicYear, className string) (*model.FeeStructure, error) {
	className = model.NormalizeName(className)
	if className == "" {
		return nil, apperr.Field("class_name", "required")
	}
	return s.mutate(ctx, institutionID, academicYear, "upsert_class", func(classes []model.FeeClass) ([]model.FeeClass, bool, error) {
		out, ok := model.WithClass(classes, className)
		if !ok {
			return nil, false, apperr.Duplicate("class %q already exists in %s", className, academicYear)
		}
		return out, true, nil
	})
}

// UpsertStudentType replaces the amounts of an existing (name, medium) entry wholesale, or appends it.
func (s *FeeStructureService) UpsertStudentType(ctx context.Context, institutionID uuid.UUID, academicYear, className string, in StudentTypeInput) (*model.FeeStructure, error) {
	st, err := normalizeStudentType(in)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, institutionID, academicYear, "upsert_student_type", func(classes []model.FeeClass) ([]model.FeeClass, bool, error) {
		out, ok := model.WithStudentType(classes, className, st)
		if !ok {
			return nil, false, apperr.NotFound("class", className)
		}
		return out, true, nil
	})
}

// DeleteClass is a no-op when the class is absent.
func (s *FeeStructureService) DeleteClass(ctx context.Context, institutionID uuid.UUID, academicYear, className string) (*model.FeeStructure, error) {
	return s.mutate(ctx, institutionID, academicYear, "delete_class", func(classes []model.FeeClass) ([]model.FeeClass, bool, error) {
		out, changed := model.WithoutClass(classes, className)
		return out, changed, nil
	})
}

// DeleteStudentType is a no-op when the class or the entry is absent.
func (s *FeeStructureService) DeleteStudentType(ctx context.Context, institutionID uuid.UUID, academicYear, className, typeName string, semiEnglish bool) (*model.FeeStructure, error) {
	return s.mutate(ctx, institutionID, academicYear, "delete_student_type", func(classes []model.FeeClass) ([]model.FeeClass, bool, error) {
		out, changed := model.WithoutStudentType(classes, className, typeName, semiEnglish)
		return out, changed, nil
	})
}

// mutate is the read-modify-write of one structure row under its row lock.
func (s *FeeStructureService) mutate(
	ctx context.Context,
	institutionID uuid.UUID,
	academicYear, op string,
	fn func([]model.FeeClass) ([]model.FeeClass, bool, error),
) (*model.FeeStructure, error) {
	if err := checkYear("academic_year", academicYear); err != nil {
		return nil, err
	}

	var out *model.FeeStructure
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		m, err := tx.FeeStructures().GetForUpdate(ctx, institutionID, academicYear)
		if err != nil {
			return err
		}
		classes, changed, err := fn(m.Classes())
		if err != nil {
			return err
		}
		if changed {
			m.SetClasses(classes)
			if err := tx.FeeStructures().Save(ctx, m); err != nil {
				return err
			}
		}
		out = m
		return projectClassNames(ctx, tx, institutionID)
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(cacheKey{institutionID, academicYear})
	s.log.Info("fee structure updated",
		zap.String("op", op),
		zap.String("institution_id", institutionID.String()),
		zap.String("academic_year", academicYear),
		zap.Int64("version", out.FeeStructureVersion),
	)
	return out, nil
}

func normalizeStudentType(in StudentTypeInput) (model.StudentTypeFee, error) {
	name := model.NormalizeName(in.Name)
	if name == "" {
		return model.StudentTypeFee{}, apperr.Field("student_type_name", "required")
	}
	bad := map[string]string{}
	amounts := make(map[string]decimal.Decimal, len(in.FeeAmounts))
	for k, v := range in.FeeAmounts {
		key := model.NormalizeName(k)
		field := "fee_amounts." + k
		switch {
		case key == "":
			bad[field] = "fee type name required"
		case v.IsNegative():
			bad[field] = "must not be negative"
		default:
			if _, dup := amounts[key]; dup {
				bad[field] = fmt.Sprintf("duplicates fee type %q", key)
				continue
			}
			amounts[key] = v.Round(2)
		}
	}
	if len(bad) > 0 {
		return model.StudentTypeFee{}, apperr.Validation("invalid fee amounts", bad)
	}
	return model.StudentTypeFee{Name: name, SemiEnglish: in.SemiEnglish, FeeAmounts: amounts}, nil
}

// projectClassNames copies the latest year's class list onto the institution record.
func projectClassNames(ctx context.Context, tx store.Repos, institutionID uuid.UUID) error {
	inst, err := tx.Institutions().Get(ctx, institutionID)
	if err != nil {
		return err
	}
	list, err := tx.FeeStructures().List(ctx, institutionID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		inst.InstitutionLatestAcademicYear = ""
		inst.InstitutionClassNames = pq.StringArray{}
	} else {
		latest := list[len(list)-1]
		inst.InstitutionLatestAcademicYear = latest.FeeStructureAcademicYear
		inst.InstitutionClassNames = pq.StringArray(latest.ClassNames())
	}
	return tx.Institutions().Save(ctx, inst)
}
