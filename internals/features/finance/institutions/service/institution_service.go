// file: internals/features/finance/institutions/service/institution_service.go
package service

import (
	"context"
	"strings"

	model "schoolfee_backend/internals/features/finance/institutions/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

type InstitutionService struct {
	store store.Store
	log   *zap.Logger
}

func NewInstitutionService(st store.Store, log *zap.Logger) *InstitutionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InstitutionService{store: st, log: log}
}

type ProfileInput struct {
	Name    *string
	Type    *string
	Address *string
	Phone   *string
	Email   *string
}

// apply copies the set fields. Class names and the latest year are owned by
// the fee structure writer and are never set here.
func (in ProfileInput) apply(m *model.Institution) error {
	bad := map[string]string{}
	if in.Name != nil {
		m.InstitutionName = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		m.InstitutionType = model.InstitutionType(strings.ToLower(strings.TrimSpace(*in.Type)))
	}
	if in.Address != nil {
		m.InstitutionAddress = strings.TrimSpace(*in.Address)
	}
	if in.Phone != nil {
		m.InstitutionPhone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		m.InstitutionEmail = strings.TrimSpace(*in.Email)
	}

	if m.InstitutionName == "" {
		bad["institution_name"] = "required"
	}
	switch m.InstitutionType {
	case "":
		m.InstitutionType = model.InstitutionSchool
	case model.InstitutionSchool, model.InstitutionCollege:
	default:
		bad["institution_type"] = "must be school or college"
	}
	if m.InstitutionEmail != "" {
		if err := validate.Var(m.InstitutionEmail, "email"); err != nil {
			bad["institution_email"] = "not a valid address"
		}
	}
	if len(bad) > 0 {
		return apperr.Validation("invalid institution", bad)
	}
	return nil
}

func (s *InstitutionService) Create(ctx context.Context, in ProfileInput) (*model.Institution, error) {
	m := &model.Institution{InstitutionID: uuid.New()}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	if err := s.store.Institutions().Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.Info("institution created", zap.String("institution_id", m.InstitutionID.String()), zap.String("type", string(m.InstitutionType)))
	return m, nil
}

func (s *InstitutionService) Get(ctx context.Context, id uuid.UUID) (*model.Institution, error) {
	return s.store.Institutions().Get(ctx, id)
}

// Update changes the profile. The type is part of every object key, so it
// only changes while no student exists.
func (s *InstitutionService) Update(ctx context.Context, id uuid.UUID, in ProfileInput) (*model.Institution, error) {
	var out *model.Institution
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		m, err := tx.Institutions().Get(ctx, id)
		if err != nil {
			return err
		}
		before := m.InstitutionType
		if err := in.apply(m); err != nil {
			return err
		}
		if m.InstitutionType != before {
			_, n, err := tx.Students().List(ctx, store.StudentFilter{InstitutionID: id, Page: store.Page{Limit: 1}})
			if err != nil {
				return err
			}
			if n > 0 {
				return apperr.Field("institution_type", "cannot change once students exist")
			}
		}
		if err := tx.Institutions().Save(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}
