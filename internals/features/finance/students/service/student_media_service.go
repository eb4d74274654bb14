// file: internals/features/finance/students/service/student_media_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	model "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/store"
	"schoolfee_backend/internals/helpers/apperr"
	helperOSS "schoolfee_backend/internals/helpers/oss"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

/*
MediaService keeps student avatar and document keys. Objects live under the
institution prefix:

	{type}/{institution}/avatars/{student}.webp
	{type}/{institution}/students/{student}/documents/{uuid}-{name}
*/
type MediaService struct {
	store         store.Store
	storage       helperOSS.Storage
	presignTTL    time.Duration
	avatarMaxSide int
	log           *zap.Logger
}

func NewMediaService(st store.Store, storage helperOSS.Storage, presignTTL time.Duration, avatarMaxSide int, log *zap.Logger) *MediaService {
	if log == nil {
		log = zap.NewNop()
	}
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	if avatarMaxSide <= 0 {
		avatarMaxSide = 512
	}
	return &MediaService{store: st, storage: storage, presignTTL: presignTTL, avatarMaxSide: avatarMaxSide, log: log}
}

type PresignedUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

func documentsPrefix(inst *instModel.Institution, studentID uuid.UUID) string {
	return helperOSS.JoinKey(inst.KeyPrefix(), "students", studentID.String(), "documents") + "/"
}

func avatarKey(inst *instModel.Institution, studentID uuid.UUID) string {
	return helperOSS.JoinKey(inst.KeyPrefix(), "avatars", studentID.String()+".webp")
}

func (s *MediaService) load(ctx context.Context, institutionID, studentID uuid.UUID) (*instModel.Institution, *model.Student, error) {
	inst, err := s.store.Institutions().Get(ctx, institutionID)
	if err != nil {
		return nil, nil, err
	}
	st, err := s.store.Students().Get(ctx, institutionID, studentID)
	if err != nil {
		return nil, nil, err
	}
	return inst, st, nil
}

/* =========================
   Documents
========================= */

// PresignDocumentUpload issues a time-limited PUT URL; the key is attached after the upload.
func (s *MediaService) PresignDocumentUpload(ctx context.Context, institutionID, studentID uuid.UUID, fileName, contentType string) (*PresignedUpload, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, apperr.Field("file_name", "required")
	}
	inst, _, err := s.load(ctx, institutionID, studentID)
	if err != nil {
		return nil, err
	}
	key := documentsPrefix(inst, studentID) + uuid.NewString() + "-" + helperOSS.SafeName(fileName)
	url, err := s.storage.PresignPut(ctx, key, contentType, s.presignTTL)
	if err != nil {
		return nil, apperr.Storage("presign upload", err)
	}
	return &PresignedUpload{Key: key, URL: url, Method: "PUT", ExpiresAt: time.Now().Add(s.presignTTL)}, nil
}

// AttachDocument records an uploaded key. Attaching twice is a no-op.
func (s *MediaService) AttachDocument(ctx context.Context, institutionID, studentID uuid.UUID, key string) (*model.Student, error) {
	inst, err := s.store.Institutions().Get(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, documentsPrefix(inst, studentID)) {
		return nil, apperr.Field("key", "does not belong to this student")
	}
	return s.modify(ctx, institutionID, studentID, func(m *model.Student) {
		for _, k := range m.StudentDocumentKeys {
			if k == key {
				return
			}
		}
		m.StudentDocumentKeys = append(m.StudentDocumentKeys, key)
	})
}

// RemoveDocument detaches the key and deletes the object. Unknown keys are ignored.
func (s *MediaService) RemoveDocument(ctx context.Context, institutionID, studentID uuid.UUID, key string) (*model.Student, error) {
	inst, err := s.store.Institutions().Get(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, documentsPrefix(inst, studentID)) {
		return nil, apperr.Field("key", "does not belong to this student")
	}
	m, err := s.modify(ctx, institutionID, studentID, func(m *model.Student) {
		keep := pq.StringArray{}
		for _, k := range m.StudentDocumentKeys {
			if k != key {
				keep = append(keep, k)
			}
		}
		m.StudentDocumentKeys = keep
	})
	if err != nil {
		return nil, err
	}
	s.deleteObject(ctx, key)
	return m, nil
}

/* =========================
   Avatar
========================= */

// UploadAvatar re-encodes the image as WebP inside the configured box and stores it.
func (s *MediaService) UploadAvatar(ctx context.Context, institutionID, studentID uuid.UUID, r io.Reader) (*model.Student, error) {
	inst, _, err := s.load(ctx, institutionID, studentID)
	if err != nil {
		return nil, err
	}
	data, err := helperOSS.ToWebP(r, helperOSS.WebPOptions{MaxSide: s.avatarMaxSide, Quality: 82})
	if err != nil {
		if errors.Is(err, helperOSS.ErrUnsupportedImage) {
			return nil, apperr.Field("file", err.Error())
		}
		return nil, apperr.Validation("cannot read image", map[string]string{"file": err.Error()})
	}
	key := avatarKey(inst, studentID)
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), "image/webp"); err != nil {
		return nil, apperr.Storage("put avatar", err)
	}
	return s.modify(ctx, institutionID, studentID, func(m *model.Student) {
		m.StudentAvatarKey = key
	})
}

func (s *MediaService) DeleteAvatar(ctx context.Context, institutionID, studentID uuid.UUID) (*model.Student, error) {
	var old string
	m, err := s.modify(ctx, institutionID, studentID, func(m *model.Student) {
		old = m.StudentAvatarKey
		m.StudentAvatarKey = ""
	})
	if err != nil {
		return nil, err
	}
	if old != "" {
		s.deleteObject(ctx, old)
	}
	return m, nil
}

// Purge drops every object of a student that is being hard-deleted.
func (s *MediaService) Purge(ctx context.Context, m *model.Student) {
	if m.StudentAvatarKey != "" {
		s.deleteObject(ctx, m.StudentAvatarKey)
	}
	for _, k := range m.StudentDocumentKeys {
		s.deleteObject(ctx, k)
	}
}

func (s *MediaService) PublicURL(key string) string {
	return s.storage.PublicURL(key)
}

func (s *MediaService) modify(ctx context.Context, institutionID, studentID uuid.UUID, fn func(m *model.Student)) (*model.Student, error) {
	var out *model.Student
	err := s.store.WithinTx(ctx, func(tx store.Repos) error {
		m, err := tx.Students().GetForUpdate(ctx, institutionID, studentID)
		if err != nil {
			return err
		}
		fn(m)
		if err := tx.Students().Save(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// deleteObject is best effort; an orphaned object is logged, not surfaced.
func (s *MediaService) deleteObject(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.log.Warn("object delete failed", zap.String("key", key), zap.Error(err))
	}
}
