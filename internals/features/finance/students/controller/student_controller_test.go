package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	feeModel "schoolfee_backend/internals/features/finance/fee_structures/model"
	instModel "schoolfee_backend/internals/features/finance/institutions/model"
	"schoolfee_backend/internals/features/finance/students/service"
	"schoolfee_backend/internals/features/finance/store/memstore"
	helperAuth "schoolfee_backend/internals/helpers/auth"
	helperOSS "schoolfee_backend/internals/helpers/oss"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	app     *fiber.App
	inst    uuid.UUID
	objects *helperOSS.MemStorage
	who     *helperAuth.Identity
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	inst := &instModel.Institution{InstitutionName: "Green Valley School"}
	require.NoError(t, st.Institutions().Create(ctx, inst))
	require.NoError(t, st.FeeStructures().Create(ctx, feeModel.NewFeeStructure(inst.InstitutionID, "24-25", []feeModel.FeeClass{{
		Name: "Class 1",
		StudentTypes: []feeModel.StudentTypeFee{
			{Name: "DS", FeeAmounts: map[string]decimal.Decimal{"Tuition": decimal.NewFromInt(8000)}},
			{Name: "DSS", FeeAmounts: map[string]decimal.Decimal{"Tuition": decimal.NewFromInt(6000)}},
		},
	}})))

	e := &env{inst: inst.InstitutionID, objects: helperOSS.NewMemStorage(), who: &helperAuth.Identity{
		UID: "clerk-1", Role: "admin", InstitutionID: inst.InstitutionID, Privilege: helperAuth.PrivilegeBoth,
	}}
	ctl := NewStudentController(service.NewStudentService(st, nil), service.NewMediaService(st, e.objects, 0, 0, nil))

	e.app = fiber.New()
	e.app.Use(func(c *fiber.Ctx) error {
		helperAuth.SetIdentity(c, *e.who)
		return c.Next()
	})
	g := e.app.Group("/:institution_id/students")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Admit)
	g.Get("/:student_id", ctl.Get)
	g.Delete("/:student_id", ctl.Delete)
	g.Post("/:student_id/reclassify", ctl.Reclassify)
	g.Put("/:student_id/avatar", ctl.UploadAvatar)
	return e
}

func (e *env) send(t *testing.T, method, path, contentType string, body io.Reader) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, "/"+e.inst.String()+"/students"+path, body)
	req.Header.Set("Content-Type", contentType)
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (e *env) do(t *testing.T, method, path, body string) (int, map[string]any) {
	return e.send(t, method, path, "application/json", strings.NewReader(body))
}

func TestStudentHTTPFlow(t *testing.T) {
	e := newEnv(t)

	code, body := e.do(t, "POST", "/", `{"fee_id":"GV-7","fname":"Meera","class":"class 1","academic_year":"24-25","student_type":"DSS"}`)
	require.Equal(t, fiber.StatusCreated, code, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "6000", data["total_fee"])
	assert.Equal(t, "2000", data["discount_fee"])
	assert.Equal(t, "4000", data["outstanding_fee"])
	assert.Equal(t, true, data["fee_configured"])
	id := data["student_id"].(string)

	code, body = e.do(t, "GET", "/?class=Class%201&status=active", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)
	assert.EqualValues(t, 1, body["pagination"].(map[string]any)["total"])

	code, body = e.do(t, "POST", "/"+id+"/reclassify", `{"student_type":"DS"}`)
	require.Equal(t, fiber.StatusOK, code, body)
	assert.Equal(t, "0", body["data"].(map[string]any)["discount_fee"])
	assert.Equal(t, "8000", body["data"].(map[string]any)["outstanding_fee"])

	code, _ = e.do(t, "GET", "/?status=gone", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)

	code, _ = e.do(t, "POST", "/", `{"fee_id":"GV-8","class":"Class 1","academic_year":"24-25","student_type":"DS"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
}

func TestStudentAvatarAndDeletePurge(t *testing.T) {
	e := newEnv(t)
	code, body := e.do(t, "POST", "/", `{"fee_id":"GV-9","fname":"Kiran","class":"Class 1","academic_year":"24-25","student_type":"DS"}`)
	require.Equal(t, fiber.StatusCreated, code, body)
	id := body["data"].(map[string]any)["student_id"].(string)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 40, 40))))
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, _ = fw.Write(img.Bytes())
	require.NoError(t, mw.Close())

	code, body = e.send(t, "PUT", "/"+id+"/avatar", mw.FormDataContentType(), &form)
	require.Equal(t, fiber.StatusOK, code, body)
	url := body["data"].(map[string]any)["avatar_url"].(string)
	assert.True(t, strings.HasSuffix(url, "/avatars/"+id+".webp"), url)
	require.Len(t, e.objects.Objects, 1)

	code, _ = e.do(t, "DELETE", "/"+id, "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Empty(t, e.objects.Objects)

	code, _ = e.do(t, "GET", "/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestStudentWriteNeedsPrivilege(t *testing.T) {
	e := newEnv(t)
	e.who.Privilege = helperAuth.PrivilegeView

	code, _ := e.do(t, "POST", "/", `{"fee_id":"GV-1","fname":"A","class":"Class 1","academic_year":"24-25","student_type":"DS"}`)
	assert.Equal(t, fiber.StatusForbidden, code)
	code, _ = e.do(t, "GET", "/", "")
	assert.Equal(t, fiber.StatusOK, code)
}
