package echoapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ready4exam/platform/core/user"
	"github.com/ready4exam/platform/core/whitelist"
)

func newUploadRequest(t *testing.T, path, token, filename string, content []byte, fields map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(): %v", err)
		}
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile(): %v", err)
	}
	if _, err = fw.Write(content); err != nil {
		t.Fatalf("Write(): %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func TestWhitelist(t *testing.T) {
	admin := createUser(t, user.User{UID: "wl-admin", Email: "admin@dps.edu", Role: user.RoleAdmin, TenantType: user.TenantSchool, SchoolID: "WL_001"})
	otherAdmin := createUser(t, user.User{UID: "wl-admin2", Email: "admin@kv.edu", Role: user.RoleAdmin, TenantType: user.TenantSchool, SchoolID: "WL_002"})
	teacher := createUser(t, user.User{UID: "wl-teacher", Email: "t@dps.edu", Role: user.RoleTeacher, TenantType: user.TenantSchool, SchoolID: "WL_001"})
	owner := createUser(t, user.User{UID: "wl-owner", Email: "owner@ready4exam.com", Role: user.RoleOwner, TenantType: user.TenantOwner})
	adminToken := getToken(t, admin)
	sentBefore := len(mailSvc.Sent())

	runHTTPTests(t, []httpTest{
		{
			name:     "teachers cannot manage the whitelist",
			method:   http.MethodGet,
			path:     "/v1/whitelist",
			token:    getToken(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "no entries",
			method:   http.MethodPost,
			path:     "/v1/whitelist",
			body:     []byte(`{"entries":[]}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"entries":"at least one entry is required"}`),
		},
		{
			name:     "owner role cannot be granted",
			method:   http.MethodPost,
			path:     "/v1/whitelist",
			body:     []byte(`{"entries":[{"email":"x@dps.edu","role":"owner"}]}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"entries[0].role":"role cannot be granted through the whitelist"}`),
		},
		{
			name:     "another school",
			method:   http.MethodPost,
			path:     "/v1/whitelist",
			body:     []byte(`{"school_id":"WL_001","entries":[{"email":"x@dps.edu"}]}`),
			token:    getToken(t, otherAdmin),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: whitelist.ErrForbiddenSchool.Error()}),
		},
		{
			name:     "owner must name the school",
			method:   http.MethodPost,
			path:     "/v1/whitelist",
			body:     []byte(`{"entries":[{"email":"x@dps.edu"}]}`),
			token:    getToken(t, owner),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"school_id":"a school id is required"}`),
		},
		{
			name:     "onboard",
			method:   http.MethodPost,
			path:     "/v1/whitelist",
			body:     []byte(`{"entries":[{"email":"A@dps.edu","role":"Teacher","section":"9-A"},{"email":"b@dps.edu","allowed_classes":["9"]}]}`),
			token:    adminToken,
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, whitelist.OnboardResult{SchoolID: "WL_001", Onboarded: 2, Invited: 2}),
		},
		{
			name:     "onboard again updates without inviting",
			method:   http.MethodPost,
			path:     "/v1/whitelist",
			body:     []byte(`{"entries":[{"email":"a@dps.edu","role":"teacher","section":"9-B"}]}`),
			token:    adminToken,
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, whitelist.OnboardResult{SchoolID: "WL_001", Onboarded: 1, Invited: 0}),
		},
		{
			name:     "email of another school",
			method:   http.MethodPost,
			path:     "/v1/whitelist",
			body:     []byte(`{"entries":[{"email":"a@dps.edu","role":"admin"}]}`),
			token:    getToken(t, otherAdmin),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: whitelist.ErrForbiddenSchool.Error()}),
		},
		{
			name:     "owner email",
			method:   http.MethodPost,
			path:     "/v1/whitelist",
			body:     []byte(`{"entries":[{"email":"owner@ready4exam.com","role":"teacher"}]}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"entries[0].email":"owner accounts cannot be managed through the whitelist"}`),
		},
	})
	assert.Len(t, mailSvc.Sent(), sentBefore+2)

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/whitelist?ordering=-email", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var entries []whitelist.Entry
		unmarchallObj(t, rec.Body.Bytes(), &entries)
		require.Len(t, entries, 2)
		assert.Equal(t, "b@dps.edu", entries[0].Email)
		assert.Equal(t, user.RoleStudent, entries[0].Role)
		assert.Equal(t, []string{"9"}, entries[0].AllowedClasses)
		assert.Equal(t, "a@dps.edu", entries[1].Email)
		assert.Equal(t, user.RoleTeacher, entries[1].Role)
		assert.Equal(t, "9-B", entries[1].Section)
	})

	t.Run("list by unknown field", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/whitelist?ordering=allowedClasses", adminToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ok, err := jsonBytesEqual(rec.Body.Bytes(), []byte(`{"ordering":"cannot order by \"allowedClasses\""}`))
		assert.NoError(t, err)
		assert.True(t, ok, rec.Body.String())
	})

	t.Run("import csv", func(t *testing.T) {
		csv := []byte("Email,Role,Section,AllowedClass\nc@dps.edu,student,9-A,9\n,student,,\nd@dps.edu,parent,,\n")
		req, rec := newUploadRequest(t, "/v1/whitelist/import", adminToken, "roster.csv", csv, nil)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res whitelist.OnboardResult
		unmarchallObj(t, rec.Body.Bytes(), &res)
		assert.Equal(t, whitelist.OnboardResult{SchoolID: "WL_001", Onboarded: 2, Invited: 2}, res)
	})

	t.Run("import unsupported file", func(t *testing.T) {
		req, rec := newUploadRequest(t, "/v1/whitelist/import", adminToken, "roster.pdf", []byte("%PDF"), nil)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ok, err := jsonBytesEqual(rec.Body.Bytes(), marchallObj(t, httpErr{Error: whitelist.ErrUnsupportedFile.Error()}))
		assert.NoError(t, err)
		assert.True(t, ok, rec.Body.String())
	})

	t.Run("sign-in of a whitelisted email", func(t *testing.T) {
		verifier["tok-wl-a"] = user.Identity{UID: "wl-a", Email: "a@dps.edu"}
		req, rec := newRequest(http.MethodPost, "/v1/auth/session", []byte(`{"id_token":"tok-wl-a"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SessionResponse
		unmarchallObj(t, rec.Body.Bytes(), &resp)
		assert.Equal(t, "/app/consoles/teacher.html?schoolId=WL_001", resp.Route)
		assert.Equal(t, user.RoleTeacher, resp.Profile.Role)
		assert.Equal(t, user.TenantSchool, resp.Profile.TenantType)
		assert.Equal(t, "WL_001", resp.Profile.SchoolID)
		assert.Equal(t, "9-B", resp.Profile.Section)
	})

	runHTTPTests(t, []httpTest{
		{
			name:     "revoke from another school",
			method:   http.MethodDelete,
			path:     "/v1/whitelist/a@dps.edu",
			token:    getToken(t, otherAdmin),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: whitelist.ErrForbiddenSchool.Error()}),
		},
		{
			name:     "revoke the owner email",
			method:   http.MethodDelete,
			path:     "/v1/whitelist/owner@ready4exam.com",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email":"owner accounts cannot be managed through the whitelist"}`),
		},
		{
			name:     "owner keeps access",
			method:   http.MethodGet,
			path:     "/v1/profile",
			token:    getToken(t, owner),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, owner),
		},
		{
			name:     "revoke unknown email",
			method:   http.MethodDelete,
			path:     "/v1/whitelist/ghost@dps.edu",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: whitelist.ErrNotFound.Error()}),
		},
		{
			name:     "revoke",
			method:   http.MethodDelete,
			path:     "/v1/whitelist/a@dps.edu",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, whitelist.RevokeResult{Email: "a@dps.edu", SuspendedUsers: 1, WhitelistRevoked: true}),
		},
		{
			name:     "revoked profile is locked out",
			method:   http.MethodGet,
			path:     "/v1/profile",
			token:    getToken(t, user.User{UID: "wl-a"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account suspended"}),
		},
	})
}
