// file: internals/features/finance/students/model/student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentActive StudentStatus = "active"
	StudentLeft   StudentStatus = "left"
)

/* ==============================
   MODEL: students
============================== */

type Student struct {
	StudentID            uuid.UUID `json:"student_id" gorm:"column:student_id;type:uuid;primaryKey"`
	StudentInstitutionID uuid.UUID `json:"student_institution_id" gorm:"column:student_institution_id;type:uuid;not null;index;uniqueIndex:uq_students_fee_id,priority:1"`
	StudentFeeID         string    `json:"student_fee_id" gorm:"column:student_fee_id;type:varchar(40);not null;uniqueIndex:uq_students_fee_id,priority:2"`

	StudentFname      string `json:"student_fname" gorm:"column:student_fname;type:varchar(80);not null"`
	StudentLname      string `json:"student_lname" gorm:"column:student_lname;type:varchar(80)"`
	StudentFatherName string `json:"student_father_name" gorm:"column:student_father_name;type:varchar(120)"`

	// enrollment
	StudentClass        string `json:"student_class" gorm:"column:student_class;type:varchar(60);not null"`
	StudentDivision     string `json:"student_division" gorm:"column:student_division;type:varchar(20)"`
	StudentAcademicYear string `json:"student_academic_year" gorm:"column:student_academic_year;type:varchar(5);not null"`
	StudentType         string `json:"student_type" gorm:"column:student_type;type:varchar(40);not null"`
	StudentSemiEnglish  bool   `json:"student_medium_flag" gorm:"column:student_semi_english;not null;default:false"`

	// totals
	StudentTotalFee       decimal.Decimal `json:"student_total_fee" gorm:"column:student_total_fee;type:numeric(14,2);not null;default:0"`
	StudentDiscountFee    decimal.Decimal `json:"student_discount_fee" gorm:"column:student_discount_fee;type:numeric(14,2);not null;default:0"`
	StudentCurrentPaidFee decimal.Decimal `json:"student_current_paid_fee" gorm:"column:student_current_paid_fee;type:numeric(14,2);not null;default:0"`
	StudentOutstandingFee decimal.Decimal `json:"student_outstanding_fee" gorm:"column:student_outstanding_fee;type:numeric(14,2);not null;default:0"`
	StudentFeeConfigured  bool            `json:"student_fee_configured" gorm:"column:student_fee_configured;not null;default:false"`

	// media
	StudentAvatarKey    string         `json:"student_avatar_key,omitempty" gorm:"column:student_avatar_key;type:text"`
	StudentDocumentKeys pq.StringArray `json:"student_document_keys" gorm:"column:student_document_keys;type:text[]"`

	StudentStatus StudentStatus `json:"student_status" gorm:"column:student_status;type:varchar(10);not null;default:'active';index"`
	StudentLeftAt *time.Time    `json:"student_left_at,omitempty" gorm:"column:student_left_at;type:timestamptz"`

	StudentCreatedAt time.Time `json:"student_created_at" gorm:"column:student_created_at;type:timestamptz;not null;autoCreateTime"`
	StudentUpdatedAt time.Time `json:"student_updated_at" gorm:"column:student_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (Student) TableName() string { return "students" }

func (m *Student) BeforeCreate(tx *gorm.DB) error {
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	if m.StudentStatus == "" {
		m.StudentStatus = StudentActive
	}
	return nil
}

func (m *Student) FullName() string {
	if m.StudentLname == "" {
		return m.StudentFname
	}
	return m.StudentFname + " " + m.StudentLname
}

// Medium is the human label of the medium flag.
func (m *Student) Medium() string {
	if m.StudentSemiEnglish {
		return "Semi-English"
	}
	return "English"
}

// SetTotals stores the gross fee and discount and re-derives the outstanding amount.
func (m *Student) SetTotals(total, discount decimal.Decimal, configured bool) {
	m.StudentTotalFee = total
	m.StudentDiscountFee = discount
	m.StudentFeeConfigured = configured
	m.recomputeOutstanding()
}

// ApplyPayment adds a recorded payment to the running totals. Callers hold the
// student row inside the recording transaction.
func (m *Student) ApplyPayment(amount decimal.Decimal) {
	m.StudentCurrentPaidFee = m.StudentCurrentPaidFee.Add(amount)
	m.recomputeOutstanding()
}

func (m *Student) recomputeOutstanding() {
	m.StudentOutstandingFee = m.StudentTotalFee.Sub(m.StudentDiscountFee).Sub(m.StudentCurrentPaidFee)
}

func (m *Student) Clone() *Student {
	if m == nil {
		return nil
	}
	cp := *m
	if m.StudentDocumentKeys != nil {
		cp.StudentDocumentKeys = append(pq.StringArray{}, m.StudentDocumentKeys...)
	}
	if m.StudentLeftAt != nil {
		t := *m.StudentLeftAt
		cp.StudentLeftAt = &t
	}
	return &cp
}
