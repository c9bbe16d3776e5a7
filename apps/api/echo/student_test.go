package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kurswahl/core/assignment"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/tests"
)

func studentNames(t *testing.T, srv *Server, token, path string) []string {
	rec := serve(srv, httpTest{method: http.MethodGet, path: path, token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var students []student.Student
	unmarchall(t, rec, &students)
	names := make([]string, 0, len(students))
	for _, s := range students {
		names = append(names, s.Name)
	}
	return names
}

func TestStudentAPI_create(t *testing.T) {
	srv, app, token := newAuthedServer(t)
	testutil.CreateStudent(t, app.StudentRepo, "Anna", 5, false)

	tests := []httpTest{
		{
			name:     "missing token",
			body:     []byte(`{"name": "Ben"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "invalid data",
			token:    token,
			body:     []byte(`{"name": " ", "priority": 10.2, "last_year_workshop": "Holz: Mo"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":               "this field is required",
				"priority":           "priority must be between 1 and 10, in steps of 0.5",
				"last_year_workshop": "last_year_workshop must not contain a colon",
			}),
		},
		{
			name:     "duplicate",
			token:    token,
			body:     []byte(`{"name": "ANNA"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": student.ErrExists.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/students"
			checkCodeAndData(t, tt, serve(srv, tt))
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := serve(srv, httpTest{
			method: http.MethodPost,
			path:   "/v1/students",
			token:  token,
			body:   []byte(`{"name": " Ben ", "class": "5b", "needs_support": true}`),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var s student.Student
		unmarchall(t, rec, &s)
		assert.Equal(t, "Ben", s.Name)
		assert.Equal(t, app.Conf.Allocation.DefaultPriority, s.Priority)
		assert.True(t, s.NeedsSupport)
	})
}

func TestStudentAPI_query(t *testing.T) {
	ctx := context.Background()
	srv, app, token := newAuthedServer(t)
	for _, ns := range []student.NewStudent{
		{Name: "Carla", Class: "5a", NeedsSupport: true},
		{Name: "Anna", Class: "5b"},
		{Name: "Ben", Class: "5a"},
	} {
		_, err := app.Students.Create(ctx, ns)
		require.NoError(t, err)
	}
	require.NoError(t, app.Students.SetPriorities(ctx, map[string]float64{"Anna": 8, "Ben": 3}))

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"roster order", "/v1/students", []string{"Carla", "Anna", "Ben"}},
		{"by name", "/v1/students?ordering=name", []string{"Anna", "Ben", "Carla"}},
		{"by priority desc", "/v1/students?ordering=-priority", []string{"Anna", "Carla", "Ben"}},
		{"class filter", "/v1/students?class=5A&ordering=name", []string{"Ben", "Carla"}},
		{"support filter", "/v1/students?needs_support=true", []string{"Carla"}},
		{"search", "/v1/students?search=ann", []string{"Anna"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, studentNames(t, srv, token, tt.path))
		})
	}

	t.Run("invalid support filter", func(t *testing.T) {
		tt := httpTest{
			method:   http.MethodGet,
			path:     "/v1/students?needs_support=maybe",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"needs_support": "needs_support must be a boolean"}),
		}
		checkCodeAndData(t, tt, serve(srv, tt))
	})
}

func TestStudentAPI_detail(t *testing.T) {
	ctx := context.Background()
	srv, app, token := newAuthedServer(t)
	anna := testutil.CreateStudent(t, app.StudentRepo, "Anna Maria", 5, false)
	notFound := marchallObj(t, httpErr{Error: student.ErrNotFound.Error()})

	tests := []httpTest{
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/v1/students/Anna%20Maria",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, anna),
		},
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/v1/students/Nobody",
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "update invalid",
			method:   http.MethodPut,
			path:     "/v1/students/Anna%20Maria",
			body:     []byte(`{"priority": 11}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"priority": "priority must be between 1 and 10, in steps of 0.5"}),
		},
		{
			name:     "update unknown",
			method:   http.MethodPut,
			path:     "/v1/students/Nobody",
			body:     []byte(`{"class": "6c"}`),
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "delete unknown",
			method:   http.MethodDelete,
			path:     "/v1/students/Nobody",
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.token = token
			checkCodeAndData(t, tt, serve(srv, tt))
		})
	}

	t.Run("update", func(t *testing.T) {
		rec := serve(srv, httpTest{
			method: http.MethodPut,
			path:   "/v1/students/Anna%20Maria",
			token:  token,
			body:   []byte(`{"class": "6c", "priority": 7.5, "needs_support": true}`),
		})
		require.Equal(t, http.StatusOK, rec.Code)
		s, err := app.StudentRepo.GetStudent(ctx, "Anna Maria")
		require.NoError(t, err)
		assert.Equal(t, "6c", s.Class)
		assert.Equal(t, 7.5, s.Priority)
		assert.True(t, s.NeedsSupport)
	})

	t.Run("delete", func(t *testing.T) {
		rec := serve(srv, httpTest{method: http.MethodDelete, path: "/v1/students/Anna%20Maria", token: token})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{}, studentNames(t, srv, token, "/v1/students"))
	})
}

func TestStudentAPI_coverage(t *testing.T) {
	ctx := context.Background()
	srv, app, token := newAuthedServer(t)
	anna := testutil.CreateStudent(t, app.StudentRepo, "Anna", 5, false)
	anna.LastYearWorkshop = "Holz"
	_, err := app.StudentRepo.UpdateStudent(ctx, anna)
	require.NoError(t, err)

	_, err = app.RuleRepo.CreateRule(ctx, rule.Belegung{Name: "Handwerk", Workshops: []string{"Holz", "Metall", "Glas"}})
	require.NoError(t, err)
	_, err = app.RuleRepo.CreateRule(ctx, rule.Folgekurs{Name: "Holz II", From: "Holz", To: "Holz 2"})
	require.NoError(t, err)

	slot := assignment.Slot{
		Key:        assignment.SlotKey{StartYear: 2025, Trimester: 1},
		Assignment: assignment.NewAssignment(),
	}
	slot.Band2["Anna"] = "Metall"
	require.NoError(t, app.AssignmentRepo.SaveSlot(ctx, slot))

	tests := []httpTest{
		{
			name:     "compliance",
			path:     "/v1/students/Anna/coverage",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []rule.Compliance{{Rule: "Handwerk", Satisfied: false, Missing: []string{"Glas"}}}),
		},
		{
			name:     "unknown student",
			path:     "/v1/students/Nobody/coverage",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: student.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.token = http.MethodGet, token
			checkCodeAndData(t, tt, serve(srv, tt))
		})
	}
}
