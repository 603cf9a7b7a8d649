package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ready4exam/platform/core/mistake"
	"github.com/ready4exam/platform/core/user"
)

func TestProfile(t *testing.T) {
	usr := createUser(t, user.User{
		UID:         "profile-1",
		Email:       "kid@gmail.com",
		DisplayName: "Kid",
		Role:        user.RoleStudent,
		TenantType:  user.TenantIndividual,
		ClassID:     "9",
	})
	teacher := createUser(t, user.User{
		UID:        "profile-teacher",
		Email:      "teacher@dps.edu",
		Role:       user.RoleTeacher,
		TenantType: user.TenantSchool,
		SchoolID:   "DPS_001",
	})
	orphan := createUser(t, user.User{
		UID:        "profile-orphan",
		Email:      "orphan@dps.edu",
		Role:       user.RoleTeacher,
		TenantType: user.TenantSchool,
	})
	owner := createUser(t, user.User{UID: "profile-owner", Email: "boss@ready4exam.com", Role: user.RoleOwner, TenantType: user.TenantOwner})

	runHTTPTests(t, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/profile",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "own profile",
			method:   http.MethodGet,
			path:     "/v1/profile",
			token:    getToken(t, usr),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, usr),
		},
		{
			name:     "roles",
			method:   http.MethodGet,
			path:     "/v1/roles",
			token:    getToken(t, usr),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, user.Roles),
		},
		{
			name:     "console of own role",
			method:   http.MethodGet,
			path:     "/v1/consoles/student",
			token:    getToken(t, usr),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ConsoleResponse{Profile: usr, Route: "/app/consoles/student.html"}),
		},
		{
			name:     "console of another role",
			method:   http.MethodGet,
			path:     "/v1/consoles/teacher",
			token:    getToken(t, usr),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: user.ErrRoleMismatch.Error()}),
		},
		{
			name:     "school staff console",
			method:   http.MethodGet,
			path:     "/v1/consoles/teacher",
			token:    getToken(t, teacher),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ConsoleResponse{Profile: teacher, Route: "/app/consoles/teacher.html?schoolId=DPS_001"}),
		},
		{
			name:     "school account without school",
			method:   http.MethodGet,
			path:     "/v1/consoles/teacher",
			token:    getToken(t, orphan),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: user.ErrMissingSchool.Error()}),
		},
		{
			name:     "owner enters any console",
			method:   http.MethodGet,
			path:     "/v1/consoles/principal",
			token:    getToken(t, owner),
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown console",
			method:   http.MethodGet,
			path:     "/v1/consoles/janitor",
			token:    getToken(t, usr),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	})
}

func TestContent(t *testing.T) {
	usr := createUser(t, user.User{UID: "content-1", Email: "reader@gmail.com", Role: user.RoleStudent, TenantType: user.TenantIndividual, ClassID: "9"})
	token := getToken(t, usr)

	summary := mistake.Summary{
		ID:       "9ScienceMotion",
		Title:    "Motion",
		Overview: "Distance, displacement and velocity.",
		FormulaVault: []mistake.FormulaEntry{
			{Label: "velocity", Formula: "v = u + at"},
		},
	}
	require.NoError(t, summaryRepo.PutSummary(context.Background(), summary))

	runHTTPTests(t, []httpTest{
		{
			name:     "unknown demo role",
			method:   http.MethodGet,
			path:     "/v1/demo/janitor",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "no demo dashboard for this role"}),
		},
		{
			name:     "curriculum needs a token",
			method:   http.MethodGet,
			path:     "/v1/curriculum/9",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "curriculum of an unserved grade",
			method:   http.MethodGet,
			path:     "/v1/curriculum/5",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Curriculum for Grade 5 not found."}),
		},
		{
			name:     "curriculum",
			method:   http.MethodGet,
			path:     "/v1/curriculum/9",
			token:    token,
			wantCode: http.StatusOK,
		},
		{
			name:     "chapter summary",
			method:   http.MethodGet,
			path:     "/v1/chapters/summary?grade=9&subject=Science&chapter=Motion",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, summary),
		},
		{
			name:     "chapter summary of the profile grade",
			method:   http.MethodGet,
			path:     "/v1/chapters/summary?subject=Science&chapter=Motion",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, summary),
		},
		{
			name:     "missing chapter summary",
			method:   http.MethodGet,
			path:     "/v1/chapters/summary?grade=10&subject=Science&chapter=Motion",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "chapter summary not found"}),
		},
		{
			name:     "chapter summary without chapter",
			method:   http.MethodGet,
			path:     "/v1/chapters/summary?subject=Science",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"chapter":"this field is required"}`),
		},
	})

	t.Run("demo dashboard", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/demo/principal")
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dash map[string]interface{}
		unmarchallObj(t, rec.Body.Bytes(), &dash)
		assert.NotEmpty(t, dash)
	})
}
