// file: internals/features/finance/fee_structures/model/fee_structure_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CanonicalFullType is the student type that carries the full, undiscounted fee.
const CanonicalFullType = "DS"

/* ==============================
   NESTED DOCUMENT
============================== */

type StudentTypeFee struct {
	Name        string                     `json:"name"`
	SemiEnglish bool                       `json:"medium_flag"` // false = English, true = Semi-English
	FeeAmounts  map[string]decimal.Decimal `json:"fee_amounts"`
}

type FeeClass struct {
	Name         string           `json:"name"`
	StudentTypes []StudentTypeFee `json:"student_types"`
}

// Total sums every fee type of the entry.
func (t StudentTypeFee) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range t.FeeAmounts {
		sum = sum.Add(v)
	}
	return sum
}

// TotalFor sums only the fee types that belong to cat.
func (t StudentTypeFee) TotalFor(cat FeeCategory) decimal.Decimal {
	sum := decimal.Zero
	for name, v := range t.FeeAmounts {
		if CategoryOfStructureEntry(name) == cat {
			sum = sum.Add(v)
		}
	}
	return sum
}

func (t StudentTypeFee) Matches(name string, semiEnglish bool) bool {
	return SameName(t.Name, name) && t.SemiEnglish == semiEnglish
}

func (t StudentTypeFee) clone() StudentTypeFee {
	amounts := make(map[string]decimal.Decimal, len(t.FeeAmounts))
	for k, v := range t.FeeAmounts {
		amounts[k] = v
	}
	t.FeeAmounts = amounts
	return t
}

func (c FeeClass) FindStudentType(name string, semiEnglish bool) (StudentTypeFee, bool) {
	for _, st := range c.StudentTypes {
		if st.Matches(name, semiEnglish) {
			return st, true
		}
	}
	return StudentTypeFee{}, false
}

/* ==============================
   MODEL: fee_structures
============================== */

type FeeStructure struct {
	FeeStructureID            uuid.UUID                      `json:"fee_structure_id" gorm:"column:fee_structure_id;type:uuid;primaryKey"`
	FeeStructureInstitutionID uuid.UUID                      `json:"fee_structure_institution_id" gorm:"column:fee_structure_institution_id;type:uuid;not null;uniqueIndex:uq_fee_structures_year,priority:1"`
	FeeStructureAcademicYear  string                         `json:"fee_structure_academic_year" gorm:"column:fee_structure_academic_year;type:varchar(5);not null;uniqueIndex:uq_fee_structures_year,priority:2"`
	FeeStructureClasses       datatypes.JSONType[[]FeeClass] `json:"fee_structure_classes" gorm:"column:fee_structure_classes;type:jsonb;not null"`
	FeeStructureVersion       int64                          `json:"fee_structure_version" gorm:"column:fee_structure_version;not null;default:0"`

	FeeStructureCreatedAt time.Time `json:"fee_structure_created_at" gorm:"column:fee_structure_created_at;type:timestamptz;not null;autoCreateTime"`
	FeeStructureUpdatedAt time.Time `json:"fee_structure_updated_at" gorm:"column:fee_structure_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (FeeStructure) TableName() string { return "fee_structures" }

func (m *FeeStructure) BeforeCreate(tx *gorm.DB) error {
	if m.FeeStructureID == uuid.Nil {
		m.FeeStructureID = uuid.New()
	}
	return nil
}

func NewFeeStructure(institutionID uuid.UUID, academicYear string, classes []FeeClass) *FeeStructure {
	if classes == nil {
		classes = []FeeClass{}
	}
	return &FeeStructure{
		FeeStructureID:            uuid.New(),
		FeeStructureInstitutionID: institutionID,
		FeeStructureAcademicYear:  academicYear,
		FeeStructureClasses:       datatypes.NewJSONType(classes),
	}
}

func (m *FeeStructure) Classes() []FeeClass {
	return m.FeeStructureClasses.Data()
}

func (m *FeeStructure) SetClasses(classes []FeeClass) {
	if classes == nil {
		classes = []FeeClass{}
	}
	m.FeeStructureClasses = datatypes.NewJSONType(classes)
	m.FeeStructureVersion++
}

func (m *FeeStructure) ClassNames() []string {
	classes := m.Classes()
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.Name)
	}
	return out
}

func (m *FeeStructure) FindClass(name string) (FeeClass, bool) {
	for _, c := range m.Classes() {
		if SameName(c.Name, name) {
			return c, true
		}
	}
	return FeeClass{}, false
}

func (m *FeeStructure) FindStudentType(className, typeName string, semiEnglish bool) (StudentTypeFee, bool) {
	c, ok := m.FindClass(className)
	if !ok {
		return StudentTypeFee{}, false
	}
	return c.FindStudentType(typeName, semiEnglish)
}

// Clone returns a deep copy; the store hands out clones so callers never alias cached data.
func (m *FeeStructure) Clone() *FeeStructure {
	if m == nil {
		return nil
	}
	cp := *m
	src := m.Classes()
	classes := make([]FeeClass, len(src))
	for i, c := range src {
		types := make([]StudentTypeFee, len(c.StudentTypes))
		for j, st := range c.StudentTypes {
			types[j] = st.clone()
		}
		classes[i] = FeeClass{Name: c.Name, StudentTypes: types}
	}
	cp.FeeStructureClasses = datatypes.NewJSONType(classes)
	return &cp
}

/* ==============================
   NAMES
============================== */

// SameName compares class / student-type names after normalization, ignoring case.
func SameName(a, b string) bool {
	return strings.EqualFold(NormalizeName(a), NormalizeName(b))
}
