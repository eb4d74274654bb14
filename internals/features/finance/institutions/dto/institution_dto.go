// file: internals/features/finance/institutions/dto/institution_dto.go
package dto

import (
	"time"

	model "schoolfee_backend/internals/features/finance/institutions/model"
	"schoolfee_backend/internals/features/finance/institutions/service"

	"github.com/google/uuid"
)

type CreateInstitutionRequest struct {
	Name    string `json:"institution_name"    validate:"required,max=160"`
	Type    string `json:"institution_type"    validate:"omitempty,oneof=school college"`
	Address string `json:"institution_address" validate:"omitempty,max=500"`
	Phone   string `json:"institution_phone"   validate:"omitempty,max=32"`
	Email   string `json:"institution_email"   validate:"omitempty,email,max=160"`
}

func (r *CreateInstitutionRequest) ToInput() service.ProfileInput {
	return service.ProfileInput{Name: &r.Name, Type: &r.Type, Address: &r.Address, Phone: &r.Phone, Email: &r.Email}
}

type UpdateInstitutionRequest struct {
	Name    *string `json:"institution_name"    validate:"omitempty,max=160"`
	Type    *string `json:"institution_type"    validate:"omitempty,oneof=school college"`
	Address *string `json:"institution_address" validate:"omitempty,max=500"`
	Phone   *string `json:"institution_phone"   validate:"omitempty,max=32"`
	Email   *string `json:"institution_email"   validate:"omitempty,max=160"`
}

func (r *UpdateInstitutionRequest) ToInput() service.ProfileInput {
	return service.ProfileInput{Name: r.Name, Type: r.Type, Address: r.Address, Phone: r.Phone, Email: r.Email}
}

type InstitutionResponse struct {
	ID                 uuid.UUID `json:"institution_id"`
	Name               string    `json:"institution_name"`
	Type               string    `json:"institution_type"`
	Address            string    `json:"institution_address"`
	Phone              string    `json:"institution_phone"`
	Email              string    `json:"institution_email"`
	LatestAcademicYear string    `json:"latest_academic_year"`
	ClassNames         []string  `json:"class_names"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func FromModel(m *model.Institution) InstitutionResponse {
	classes := []string(m.InstitutionClassNames)
	if classes == nil {
		classes = []string{}
	}
	return InstitutionResponse{
		ID:                 m.InstitutionID,
		Name:               m.InstitutionName,
		Type:               string(m.InstitutionType),
		Address:            m.InstitutionAddress,
		Phone:              m.InstitutionPhone,
		Email:              m.InstitutionEmail,
		LatestAcademicYear: m.InstitutionLatestAcademicYear,
		ClassNames:         classes,
		UpdatedAt:          m.InstitutionUpdatedAt,
	}
}
