// file: internals/features/finance/institutions/model/institution_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type InstitutionType string

const (
	InstitutionSchool  InstitutionType = "school"
	InstitutionCollege InstitutionType = "college"
)

/* ==============================
   MODEL: institutions
============================== */

type Institution struct {
	InstitutionID      uuid.UUID       `json:"institution_id" gorm:"column:institution_id;type:uuid;primaryKey"`
	InstitutionName    string          `json:"institution_name" gorm:"column:institution_name;type:varchar(160);not null"`
	InstitutionType    InstitutionType `json:"institution_type" gorm:"column:institution_type;type:varchar(16);not null;default:'school'"`
	InstitutionAddress string          `json:"institution_address" gorm:"column:institution_address;type:text"`
	InstitutionPhone   string          `json:"institution_phone" gorm:"column:institution_phone;type:varchar(32)"`
	InstitutionEmail   string          `json:"institution_email" gorm:"column:institution_email;type:varchar(160)"`

	// projection of the latest academic year's fee structure
	InstitutionLatestAcademicYear string         `json:"institution_latest_academic_year" gorm:"column:institution_latest_academic_year;type:varchar(5)"`
	InstitutionClassNames         pq.StringArray `json:"institution_class_names" gorm:"column:institution_class_names;type:text[]"`

	InstitutionCreatedAt time.Time `json:"institution_created_at" gorm:"column:institution_created_at;type:timestamptz;not null;autoCreateTime"`
	InstitutionUpdatedAt time.Time `json:"institution_updated_at" gorm:"column:institution_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (Institution) TableName() string { return "institutions" }

func (m *Institution) BeforeCreate(tx *gorm.DB) error {
	if m.InstitutionID == uuid.Nil {
		m.InstitutionID = uuid.New()
	}
	if m.InstitutionType == "" {
		m.InstitutionType = InstitutionSchool
	}
	return nil
}

// KeyPrefix is the object-storage prefix shared by every file of the institution.
func (m *Institution) KeyPrefix() string {
	t := m.InstitutionType
	if t == "" {
		t = InstitutionSchool
	}
	return string(t) + "/" + m.InstitutionID.String()
}

func (m *Institution) Clone() *Institution {
	if m == nil {
		return nil
	}
	cp := *m
	if m.InstitutionClassNames != nil {
		cp.InstitutionClassNames = append(pq.StringArray{}, m.InstitutionClassNames...)
	}
	return &cp
}

// ClassIndex returns the position of a class in the institution's ordered class list, or -1.
func (m *Institution) ClassIndex(name string, same func(a, b string) bool) int {
	for i, c := range m.InstitutionClassNames {
		if same(c, name) {
			return i
		}
	}
	return -1
}
