// file: internals/features/finance/students/service/student_service.go
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	model "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type StudentService struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewStudentService(st store.Store, log *zap.Logger) *StudentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudentService{store: st, log: log, now: time.Now}
}

/* =========================
   Inputs
========================= */

type AdmitInput struct {
	FeeID        string
	Fname        string
	Lname        string
	FatherName   string
	Class        string
	Division     string
	AcademicYear string
	StudentType  string
	SemiEnglish  bool
}

// UpdateInput touches identity fields only; nil means unchanged.
type UpdateInput struct {
	FeeID      *string
	Fname      *string
	Lname      *string
	FatherName *string
}

// ReclassifyInput moves a student; totals are recomputed, payments are kept.
type ReclassifyInput struct {
	Class        *string
	Division     *string
	AcademicYear *string
	StudentType  *string
	SemiEnglish  *bool
}

func (in AdmitInput) validate() error {
	bad := map[string]string{}
	if strings.TrimSpace(in.FeeID) == "" {
		bad["fee_id"] = "required"
	}
	if strings.TrimSpace(in.Fname) == "" {
		bad["fname"] = "required"
	}
	if feeModel.NormalizeName(in.Class) == "" {
		bad["class"] = "required"
	}
	if feeModel.NormalizeName(in.StudentType) == "" {
		bad["student_type"] = "required"
	}
	if !feeModel.ValidAcademicYear(in.AcademicYear) {
		bad["academic_year"] = "must be YY-YY with consecutive years, e.g. 24-25"
	}
	if len(bad) > 0 {
		return apperr.Validation("invalid student", bad)
	}
	return nil
}

/* =========================
   Admission & reads
========================= */

// Admit creates the ledger with totals resolved from the fee structure. An
// unconfigured fee leaves totals at zero with StudentFeeConfigured=false.
func (s *StudentService) Admit(ctx context.Context, institutionID uuid.UUID, in AdmitInput) (*model.Student, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m := &model.Student{
		StudentID:            uuid.New(),
		StudentInstitutionID: institutionID,
		StudentFeeID:         strings.TrimSpace(in.FeeID),
		StudentFname:         strings.TrimSpace(in.Fname),
		StudentLname:         strings.TrimSpace(in.Lname),
		StudentFatherName:    strings.TrimSpace(in.FatherName),
		StudentClass:         feeModel.NormalizeName(in.Class),
		StudentDivision:      strings.TrimSpace(in.Division),
		StudentAcademicYear:  in.AcademicYear,
		StudentType:          feeModel.NormalizeName(in.StudentType),
		StudentSemiEnglish:   in.SemiEnglish,
		StudentStatus:        model.StudentActive,
	}

	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		if _, err := tx.Institutions().Get(ctx, institutionID); err != nil {
			return err
		}
		if err := s.applyTotals(ctx, tx, m); err != nil {
			return err
		}
		return tx.Students().Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("student admitted",
		zap.String("institution_id", institutionID.String()),
		zap.String("student_id", m.StudentID.String()),
		zap.Bool("fee_configured", m.StudentFeeConfigured),
	)
	return m, nil
}

func (s *StudentService) Get(ctx context.Context, institutionID, studentID uuid.UUID) (*model.Student, error) {
	return s.store.Students().Get(ctx, institutionID, studentID)
}

func (s *StudentService) List(ctx context.Context, f store.StudentFilter) ([]*model.Student, int64, error) {
	if f.AcademicYear != "" && !feeModel.ValidAcademicYear(f.AcademicYear) {
		return nil, 0, apperr.Field("academic_year", "must be YY-YY with consecutive years, e.g. 24-25")
	}
	switch f.Status {
	case "", model.StudentActive, model.StudentLeft:
	default:
		return nil, 0, apperr.Field("status", "must be active or left")
	}
	return s.store.Students().List(ctx, f)
}

/* =========================
   Mutations
========================= */

func (s *StudentService) Update(ctx context.Context, institutionID, studentID uuid.UUID, in UpdateInput) (*model.Student, error) {
	return s.modify(ctx, institutionID, studentID, func(_ store.Repos, m *model.Student) error {
		bad := map[string]string{}
		if in.FeeID != nil {
			if v := strings.TrimSpace(*in.FeeID); v != "" {
				m.StudentFeeID = v
			} else {
				bad["fee_id"] = "must not be empty"
			}
		}
		if in.Fname != nil {
			if v := strings.TrimSpace(*in.Fname); v != "" {
				m.StudentFname = v
			} else {
				bad["fname"] = "must not be empty"
			}
		}
		if in.Lname != nil {
			m.StudentLname = strings.TrimSpace(*in.Lname)
		}
		if in.FatherName != nil {
			m.StudentFatherName = strings.TrimSpace(*in.FatherName)
		}
		if len(bad) > 0 {
			return apperr.Validation("invalid student", bad)
		}
		return nil
	})
}

// Reclassify handles promotion and type/medium changes.
func (s *StudentService) Reclassify(ctx context.Context, institutionID, studentID uuid.UUID, in ReclassifyInput) (*model.Student, error) {
	if in.AcademicYear != nil && !feeModel.ValidAcademicYear(*in.AcademicYear) {
		return nil, apperr.Field("academic_year", "must be YY-YY with consecutive years, e.g. 24-25")
	}
	return s.modify(ctx, institutionID, studentID, func(tx store.Repos, m *model.Student) error {
		if in.Class != nil {
			if v := feeModel.NormalizeName(*in.Class); v != "" {
				m.StudentClass = v
			} else {
				return apperr.Field("class", "must not be empty")
			}
		}
		if in.StudentType != nil {
			if v := feeModel.NormalizeName(*in.StudentType); v != "" {
				m.StudentType = v
			} else {
				return apperr.Field("student_type", "must not be empty")
			}
		}
		if in.Division != nil {
			m.StudentDivision = strings.TrimSpace(*in.Division)
		}
		if in.AcademicYear != nil {
			m.StudentAcademicYear = *in.AcademicYear
		}
		if in.SemiEnglish != nil {
			m.StudentSemiEnglish = *in.SemiEnglish
		}
		return s.applyTotals(ctx, tx, m)
	})
}

// MarkLeft is the logical delete; the ledger and its transactions stay.
func (s *StudentService) MarkLeft(ctx context.Context, institutionID, studentID uuid.UUID) (*model.Student, error) {
	return s.modify(ctx, institutionID, studentID, func(_ store.Repos, m *model.Student) error {
		if m.StudentStatus == model.StudentLeft {
			return nil
		}
		now := s.now()
		m.StudentStatus = model.StudentLeft
		m.StudentLeftAt = &now
		return nil
	})
}

// Delete removes the record for good. Recorded transactions are not touched.
func (s *StudentService) Delete(ctx context.Context, institutionID, studentID uuid.UUID) error {
	ok, err := s.store.Students().Delete(ctx, institutionID, studentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("student", studentID.String())
	}
	s.log.Warn("student deleted",
		zap.String("institution_id", institutionID.String()),
		zap.String("student_id", studentID.String()),
	)
	return nil
}

func (s *StudentService) modify(ctx context.Context, institutionID, studentID uuid.UUID, fn func(tx store.Repos, m *model.Student) error) (*model.Student, error) {
	var out *model.Student
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		m, err := tx.Students().GetForUpdate(ctx, institutionID, studentID)
		if err != nil {
			return err
		}
		if err := fn(tx, m); err != nil {
			return err
		}
		if err := tx.Students().Save(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// applyTotals resolves totalFee and discountFee from the structure visible in tx.
func (s *StudentService) applyTotals(ctx context.Context, tx store.Repos, m *model.Student) error {
	fees := NewFeeResolver(tx.FeeStructures(), s.log)
	q := QueryFor(m, "")
	total, err := fees.ResolveBaseFee(ctx, q)
	if errors.Is(err, apperr.ErrNotConfigured) {
		s.log.Warn("fee not configured for student",
			zap.String("student_id", m.StudentID.String()),
			zap.String("academic_year", q.AcademicYear),
			zap.String("class", q.ClassName),
			zap.String("student_type", q.StudentType),
		)
		m.SetTotals(decimal.Zero, decimal.Zero, false)
		return nil
	}
	if err != nil {
		return err
	}
	discount, err := fees.ComputeDiscount(ctx, q)
	if err != nil {
		return err
	}
	m.SetTotals(total, discount, true)
	return nil
}

/* =========================
   Balances
========================= */

// BalanceRow is the state of one (academic year, category) pair. Due and
// Remaining are nil when the year has no fee configured for the student.
type BalanceRow struct {
	AcademicYear string               `json:"academic_year"`
	Category     feeModel.FeeCategory `json:"category"`
	Due          *decimal.Decimal     `json:"due"`
	Discount     decimal.Decimal      `json:"discount"`
	Paid         decimal.Decimal      `json:"paid"`
	Remaining    *decimal.Decimal     `json:"remaining"`
	Payments     int64                `json:"payments"`
	Configured   bool                 `json:"configured"`
}

type StudentBalances struct {
	Student   *model.Student  `json:"student"`
	Rows      []BalanceRow    `json:"rows"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

// Balances is computed from the transaction log, per year and category,
// using the student's current class/type for every year.
func (s *StudentService) Balances(ctx context.Context, institutionID, studentID uuid.UUID) (*StudentBalances, error) {
	st, err := s.store.Students().Get(ctx, institutionID, studentID)
	if err != nil {
		return nil, err
	}
	totals, err := s.store.Transactions().Totals(ctx, institutionID, studentID)
	if err != nil {
		return nil, err
	}

	type key struct {
		year string
		cat  feeModel.FeeCategory
	}
	paid := map[key]store.CategoryTotal{}
	years := map[string]bool{st.StudentAcademicYear: true}
	for _, t := range totals {
		paid[key{t.AcademicYear, t.Category}] = t
		years[t.AcademicYear] = true
	}

	fees := NewFeeResolver(s.store.FeeStructures(), s.log)
	out := &StudentBalances{Student: st, Rows: []BalanceRow{}, TotalPaid: decimal.Zero}
	for _, year := range sortedYears(years) {
		q := QueryFor(st, year)
		_, baseErr := fees.ResolveBaseFee(ctx, q)
		configured := baseErr == nil
		if baseErr != nil && !errors.Is(baseErr, apperr.ErrNotConfigured) {
			return nil, baseErr
		}

		cats := map[feeModel.FeeCategory]bool{}
		for k := range paid {
			if k.year == year {
				cats[k.cat] = true
			}
		}
		if configured {
			for _, c := range allCategories {
				due, err := fees.ResolveCategoryFee(ctx, q, c)
				if err != nil {
					return nil, err
				}
				if due.IsPositive() {
					cats[c] = true
				}
			}
		}

		for _, c := range allCategories {
			if !cats[c] {
				continue
			}
			t := paid[key{year, c}]
			row := BalanceRow{
				AcademicYear: year,
				Category:     c,
				Discount:     decimal.Zero,
				Paid:         t.Paid,
				Payments:     t.Count,
				Configured:   configured,
			}
			if configured {
				due, err := fees.ResolveCategoryFee(ctx, q, c)
				if err != nil {
					return nil, err
				}
				if c.DiscountEligible() {
					if row.Discount, err = fees.ComputeCategoryDiscount(ctx, q, c); err != nil {
						return nil, err
					}
				}
				rem := due.Sub(row.Discount).Sub(row.Paid)
				row.Due, row.Remaining = &due, &rem
			}
			out.TotalPaid = out.TotalPaid.Add(row.Paid)
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

var allCategories = []feeModel.FeeCategory{
	feeModel.CategorySchool,
	feeModel.CategoryTransport,
	feeModel.CategoryMess,
	feeModel.CategoryHostel,
	feeModel.CategoryItem,
	feeModel.CategoryOther,
}

func sortedYears(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for y := range set {
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool { return feeModel.AcademicYearLess(out[i], out[j]) })
	return out
}
