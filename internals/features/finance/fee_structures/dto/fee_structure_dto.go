// file: internals/features/finance/fee_structures/dto/fee_structure_dto.go
package dto

import (
	"encoding/json"
	"strings"
	"time"

	model "schoolfee_backend/internals/features/finance/fee_structures/model"
	"schoolfee_backend/internals/features/finance/fee_structures/service"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/* =========================================================
   REQUESTS
========================================================= */

type CreateAcademicYearRequest struct {
	AcademicYear string `json:"academic_year" validate:"required,len=5"`
	CopyFrom     string `json:"copy_from"     validate:"omitempty,len=5"`
}

type UpsertClassRequest struct {
	ClassName string `json:"class_name" validate:"required,max=60"`
}

// UpsertStudentTypeRequest keeps amounts raw so that both 1200 and "1200" are accepted.
type UpsertStudentTypeRequest struct {
	StudentTypeName string                     `json:"student_type_name" validate:"required,max=40"`
	MediumFlag      bool                       `json:"medium_flag"`
	FeeAmounts      map[string]json.RawMessage `json:"fee_amounts"       validate:"required"`
}

func (r *UpsertStudentTypeRequest) ToInput() (service.StudentTypeInput, error) {
	amounts, err := ParseFeeAmounts(r.FeeAmounts)
	if err != nil {
		return service.StudentTypeInput{}, err
	}
	return service.StudentTypeInput{
		Name:        r.StudentTypeName,
		SemiEnglish: r.MediumFlag,
		FeeAmounts:  amounts,
	}, nil
}

// ParseFeeAmounts coerces JSON numbers and numeric strings. Each offending fee type is named.
func ParseFeeAmounts(raw map[string]json.RawMessage) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(raw))
	bad := map[string]string{}
	for name, v := range raw {
		d, ok := parseAmount(v)
		if !ok {
			bad["fee_amounts."+name] = "must be a number"
			continue
		}
		out[name] = d
	}
	if len(bad) > 0 {
		return nil, apperr.Validation("invalid fee amounts", bad)
	}
	return out, nil
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return decimal.Zero, false
		}
		s = strings.ReplaceAll(strings.TrimSpace(str), ",", "")
		if s == "" {
			return decimal.Zero, false
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

/* =========================================================
   RESPONSES
========================================================= */

type StudentTypeResponse struct {
	Name       string                     `json:"student_type_name"`
	MediumFlag bool                       `json:"medium_flag"`
	Medium     string                     `json:"medium"`
	FeeAmounts map[string]decimal.Decimal `json:"fee_amounts"`
	Total      decimal.Decimal            `json:"total"`
}

type FeeClassResponse struct {
	Name         string                `json:"class_name"`
	StudentTypes []StudentTypeResponse `json:"student_types"`
}

type FeeStructureResponse struct {
	FeeStructureID uuid.UUID          `json:"fee_structure_id"`
	InstitutionID  uuid.UUID          `json:"institution_id"`
	AcademicYear   string             `json:"academic_year"`
	Version        int64              `json:"version"`
	Classes        []FeeClassResponse `json:"classes"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func FromModel(m *model.FeeStructure) FeeStructureResponse {
	classes := m.Classes()
	out := FeeStructureResponse{
		FeeStructureID: m.FeeStructureID,
		InstitutionID:  m.FeeStructureInstitutionID,
		AcademicYear:   m.FeeStructureAcademicYear,
		Version:        m.FeeStructureVersion,
		Classes:        make([]FeeClassResponse, 0, len(classes)),
		UpdatedAt:      m.FeeStructureUpdatedAt,
	}
	for _, c := range classes {
		cr := FeeClassResponse{Name: c.Name, StudentTypes: make([]StudentTypeResponse, 0, len(c.StudentTypes))}
		for _, st := range c.StudentTypes {
			medium := "English"
			if st.SemiEnglish {
				medium = "Semi-English"
			}
			cr.StudentTypes = append(cr.StudentTypes, StudentTypeResponse{
				Name:       st.Name,
				MediumFlag: st.SemiEnglish,
				Medium:     medium,
				FeeAmounts: st.FeeAmounts,
				Total:      st.Total(),
			})
		}
		out.Classes = append(out.Classes, cr)
	}
	return out
}

// YearSummary is the list view: one row per academic year.
type YearSummary struct {
	AcademicYear string    `json:"academic_year"`
	Version      int64     `json:"version"`
	ClassNames   []string  `json:"class_names"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func FromModelsSummary(rows []*model.FeeStructure) []YearSummary {
	out := make([]YearSummary, 0, len(rows))
	for _, m := range rows {
		out = append(out, YearSummary{
			AcademicYear: m.FeeStructureAcademicYear,
			Version:      m.FeeStructureVersion,
			ClassNames:   m.ClassNames(),
			UpdatedAt:    m.FeeStructureUpdatedAt,
		})
	}
	return out
}
