// file: internals/features/finance/students/dto/student_dto.go
package dto

import (
	"strings"
	"time"

	model "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/students/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/* =========================================================
   REQUESTS
========================================================= */

type AdmitStudentRequest struct {
	FeeID        string `json:"fee_id"        validate:"required,max=40"`
	Fname        string `json:"fname"         validate:"required,max=80"`
	Lname        string `json:"lname"         validate:"omitempty,max=80"`
	FatherName   string `json:"father_name"   validate:"omitempty,max=120"`
	Class        string `json:"class"         validate:"required,max=60"`
	Division     string `json:"division"      validate:"omitempty,max=20"`
	AcademicYear string `json:"academic_year" validate:"required,len=5"`
	StudentType  string `json:"student_type"  validate:"required,max=40"`
	MediumFlag   bool   `json:"medium_flag"`
}

func (r *AdmitStudentRequest) ToInput() service.AdmitInput {
	return service.AdmitInput{
		FeeID:        r.FeeID,
		Fname:        r.Fname,
		Lname:        r.Lname,
		FatherName:   r.FatherName,
		Class:        r.Class,
		Division:     r.Division,
		AcademicYear: strings.TrimSpace(r.AcademicYear),
		StudentType:  r.StudentType,
		SemiEnglish:  r.MediumFlag,
	}
}

// UpdateStudentRequest is a PATCH; absent fields stay as they are.
type UpdateStudentRequest struct {
	FeeID      *string `json:"fee_id"      validate:"omitempty,max=40"`
	Fname      *string `json:"fname"       validate:"omitempty,max=80"`
	Lname      *string `json:"lname"       validate:"omitempty,max=80"`
	FatherName *string `json:"father_name" validate:"omitempty,max=120"`
}

func (r *UpdateStudentRequest) ToInput() service.UpdateInput {
	return service.UpdateInput{FeeID: r.FeeID, Fname: r.Fname, Lname: r.Lname, FatherName: r.FatherName}
}

type ReclassifyStudentRequest struct {
	Class        *string `json:"class"         validate:"omitempty,max=60"`
	Division     *string `json:"division"      validate:"omitempty,max=20"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,len=5"`
	StudentType  *string `json:"student_type"  validate:"omitempty,max=40"`
	MediumFlag   *bool   `json:"medium_flag"`
}

func (r *ReclassifyStudentRequest) ToInput() service.ReclassifyInput {
	return service.ReclassifyInput{
		Class:        r.Class,
		Division:     r.Division,
		AcademicYear: r.AcademicYear,
		StudentType:  r.StudentType,
		SemiEnglish:  r.MediumFlag,
	}
}

type PresignDocumentRequest struct {
	FileName    string `json:"file_name"    validate:"required,max=200"`
	ContentType string `json:"content_type" validate:"omitempty,max=100"`
}

type DocumentKeyRequest struct {
	Key string `json:"key" validate:"required"`
}

/* =========================================================
   RESPONSES
========================================================= */

type StudentResponse struct {
	StudentID     uuid.UUID `json:"student_id"`
	InstitutionID uuid.UUID `json:"institution_id"`
	FeeID         string    `json:"fee_id"`
	Fname         string    `json:"fname"`
	Lname         string    `json:"lname"`
	FullName      string    `json:"full_name"`
	FatherName    string    `json:"father_name"`

	Class        string `json:"class"`
	Division     string `json:"division"`
	AcademicYear string `json:"academic_year"`
	StudentType  string `json:"student_type"`
	MediumFlag   bool   `json:"medium_flag"`
	Medium       string `json:"medium"`

	TotalFee       decimal.Decimal `json:"total_fee"`
	DiscountFee    decimal.Decimal `json:"discount_fee"`
	CurrentPaidFee decimal.Decimal `json:"current_paid_fee"`
	OutstandingFee decimal.Decimal `json:"outstanding_fee"`
	FeeConfigured  bool            `json:"fee_configured"`

	AvatarURL    string   `json:"avatar_url,omitempty"`
	DocumentKeys []string `json:"document_keys"`

	Status    model.StudentStatus `json:"status"`
	LeftAt    *time.Time          `json:"left_at,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// URLFunc turns an object key into a public URL; nil leaves avatar_url empty.
type URLFunc func(key string) string

func FromModel(m *model.Student, url URLFunc) StudentResponse {
	out := StudentResponse{
		StudentID:      m.StudentID,
		InstitutionID:  m.StudentInstitutionID,
		FeeID:          m.StudentFeeID,
		Fname:          m.StudentFname,
		Lname:          m.StudentLname,
		FullName:       m.FullName(),
		FatherName:     m.StudentFatherName,
		Class:          m.StudentClass,
		Division:       m.StudentDivision,
		AcademicYear:   m.StudentAcademicYear,
		StudentType:    m.StudentType,
		MediumFlag:     m.StudentSemiEnglish,
		Medium:         m.Medium(),
		TotalFee:       m.StudentTotalFee,
		DiscountFee:    m.StudentDiscountFee,
		CurrentPaidFee: m.StudentCurrentPaidFee,
		OutstandingFee: m.StudentOutstandingFee,
		FeeConfigured:  m.StudentFeeConfigured,
		DocumentKeys:   append([]string{}, m.StudentDocumentKeys...),
		Status:         m.StudentStatus,
		LeftAt:         m.StudentLeftAt,
		CreatedAt:      m.StudentCreatedAt,
		UpdatedAt:      m.StudentUpdatedAt,
	}
	if m.StudentAvatarKey != "" && url != nil {
		out.AvatarURL = url(m.StudentAvatarKey)
	}
	return out
}

func FromModels(rows []*model.Student, url URLFunc) []StudentResponse {
	out := make([]StudentResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, FromModel(m, url))
	}
	return out
}

type BalancesResponse struct {
	Student   StudentResponse      `json:"student"`
	Rows      []service.BalanceRow `json:"rows"`
	TotalPaid decimal.Decimal      `json:"total_paid"`
}

func FromBalances(b *service.StudentBalances, url URLFunc) BalancesResponse {
	return BalancesResponse{Student: FromModel(b.Student, url), Rows: b.Rows, TotalPaid: b.TotalPaid}
}
