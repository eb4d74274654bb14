package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	"schoolfee_backend/internals/helpers/apperr"
	helperOSS "schoolfee_backend/internals/helpers/oss"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentLifecycle(t *testing.T) {
	st, inst := seed(t)
	ctx := context.Background()
	s := admitDSS(t, NewStudentService(st, nil), inst)
	objects := helperOSS.NewMemStorage()
	media := NewMediaService(st, objects, 0, 0, nil)

	up, err := media.PresignDocumentUpload(ctx, inst, s.StudentID, "Birth Certificate.pdf", "application/pdf")
	require.NoError(t, err)
	prefix := "school/" + inst.String() + "/students/" + s.StudentID.String() + "/documents/"
	assert.True(t, strings.HasPrefix(up.Key, prefix), up.Key)
	assert.True(t, strings.HasSuffix(up.Key, "-Birth_Certificate.pdf"), up.Key)
	assert.Equal(t, "PUT", up.Method)

	// client uploads directly
	require.NoError(t, objects.Put(ctx, up.Key, strings.NewReader("%PDF"), "application/pdf"))

	got, err := media.AttachDocument(ctx, inst, s.StudentID, up.Key)
	require.NoError(t, err)
	got, err = media.AttachDocument(ctx, inst, s.StudentID, up.Key)
	require.NoError(t, err)
	assert.Equal(t, []string{up.Key}, []string(got.StudentDocumentKeys))

	_, err = media.AttachDocument(ctx, inst, s.StudentID, "school/other/students/x/documents/a.pdf")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err = media.RemoveDocument(ctx, inst, s.StudentID, up.Key)
	require.NoError(t, err)
	assert.Empty(t, got.StudentDocumentKeys)
	assert.False(t, objects.Has(up.Key))
}

func TestAvatarUploadAndDelete(t *testing.T) {
	st, inst := seed(t)
	ctx := context.Background()
	s := admitDSS(t, NewStudentService(st, nil), inst)
	objects := helperOSS.NewMemStorage()
	media := NewMediaService(st, objects, 0, 64, nil)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 200))))

	got, err := media.UploadAvatar(ctx, inst, s.StudentID, &buf)
	require.NoError(t, err)
	want := "school/" + inst.String() + "/avatars/" + s.StudentID.String() + ".webp"
	assert.Equal(t, want, got.StudentAvatarKey)
	require.True(t, objects.Has(want))
	assert.Equal(t, "image/webp", objects.Objects[want].ContentType)

	_, err = media.UploadAvatar(ctx, inst, s.StudentID, strings.NewReader("plain text"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err = media.DeleteAvatar(ctx, inst, s.StudentID)
	require.NoError(t, err)
	assert.Empty(t, got.StudentAvatarKey)
	assert.False(t, objects.Has(want))
}
