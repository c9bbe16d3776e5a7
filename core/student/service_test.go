package student_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/tests"
)

func fPtr(f float64) *float64 { return &f }
func sPtr(s string) *string    { return &s }
func bPtr(b bool) *bool        { return &b }

func TestClampPriority(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 5, want: 5},
		{in: 0.2, want: 1},
		{in: -3, want: 1},
		{in: 12.75, want: 10},
		{in: 4.25, want: 4.3},
		{in: 6.04, want: 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, student.ClampPriority(tt.in), "ClampPriority(%v)", tt.in)
	}
}

func TestNewStudent_Validate(t *testing.T) {
	app := testutil.NewApp(t)
	testutil.CreateStudent(t, app.StudentRepo, "Anna", 5, false)

	tests := []struct {
		name    string
		ns      student.NewStudent
		wantTag string
		wantErr error
	}{
		{name: "valid", ns: student.NewStudent{Name: "Ben", Priority: fPtr(7.5)}},
		{name: "no priority", ns: student.NewStudent{Name: "Ben"}},
		{name: "name required", ns: student.NewStudent{Name: "  "}, wantTag: "required"},
		{name: "priority off the grid", ns: student.NewStudent{Name: "Ben", Priority: fPtr(7.3)}, wantTag: "priority"},
		{name: "priority out of range", ns: student.NewStudent{Name: "Ben", Priority: fPtr(11)}, wantTag: "priority"},
		{name: "colon in last year workshop", ns: student.NewStudent{Name: "Ben", LastYearWorkshop: "Holz: Mo"}, wantTag: "nocolon"},
		{name: "name taken", ns: student.NewStudent{Name: " anna "}, wantErr: student.ErrExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(app.Validate, app.Students)
			switch {
			case tt.wantTag != "":
				var verrs validator.ValidationErrors
				require.True(t, errors.As(err, &verrs), "got %v", err)
				assert.Equal(t, tt.wantTag, verrs[0].Tag())
			case tt.wantErr != nil:
				var verr *core.ValidationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Equal(t, tt.wantErr, verr.Err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_CreateUpdate(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp(t)

	s, err := app.Students.Create(ctx, student.NewStudent{Name: "Anna", Class: "5a"})
	require.NoError(t, err)
	assert.Equal(t, app.Conf.Allocation.DefaultPriority, s.Priority)

	us := student.UpdateStudent{Priority: fPtr(8.5), Comment: sPtr(" quiet "), NeedsSupport: bPtr(true)}
	require.NoError(t, us.Validate(app.Validate))
	s, err = app.Students.Update(ctx, "Anna", us)
	require.NoError(t, err)
	assert.Equal(t, 8.5, s.Priority)
	assert.Equal(t, "quiet", s.Comment)
	assert.True(t, s.NeedsSupport)
	assert.Equal(t, "5a", s.Class, "nil fields are untouched")

	require.NoError(t, app.Students.SetPriorities(ctx, map[string]float64{"Anna": 11}))
	s, err = app.Students.Get(ctx, "Anna")
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.Priority)

	require.NoError(t, app.Students.Delete(ctx, "Anna"))
	_, err = app.Students.Get(ctx, "Anna")
	assert.Equal(t, student.ErrNotFound, errors.Cause(err))
}

func TestService_Filter(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewApp(t)
	for _, ns := range []student.NewStudent{
		{Name: "Anna", Class: "5a", Comment: "loves wood"},
		{Name: "Ben", Class: "5b", NeedsSupport: true},
		{Name: "Carla", Class: "5A", NeedsSupport: true},
	} {
		_, err := app.Students.Create(ctx, ns)
		require.NoError(t, err)
	}

	names := func(students []student.Student) []string {
		res := make([]string, 0, len(students))
		for _, s := range students {
			res = append(res, s.Name)
		}
		return res
	}

	tests := []struct {
		name   string
		filter student.QueryFilter
		want   []string
	}{
		{name: "empty", want: []string{"Anna", "Ben", "Carla"}},
		{name: "search name", filter: student.QueryFilter{Search: "an"}, want: []string{"Anna"}},
		{name: "search comment", filter: student.QueryFilter{Search: "WOOD"}, want: []string{"Anna"}},
		{name: "class", filter: student.QueryFilter{Class: "5a"}, want: []string{"Anna", "Carla"}},
		{name: "support", filter: student.QueryFilter{NeedsSupport: bPtr(true)}, want: []string{"Ben", "Carla"}},
		{name: "combined", filter: student.QueryFilter{Class: "5a", NeedsSupport: bPtr(false)}, want: []string{"Anna"}},
		{name: "none", filter: student.QueryFilter{Search: "zz"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := app.Students.Filter(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSort(t *testing.T) {
	roster := func() []student.Student {
		return []student.Student{
			{Name: "carla", Class: "5b", Priority: 4},
			{Name: "Anna", Class: "5a", Priority: 6},
			{Name: "Ben", Class: "5b", Priority: 6},
		}
	}
	names := func(students []student.Student) []string {
		res := make([]string, 0, len(students))
		for _, s := range students {
			res = append(res, s.Name)
		}
		return res
	}

	tests := []struct {
		name     string
		ordering string
		want     []string
	}{
		{"none", "", []string{"carla", "Anna", "Ben"}},
		{"unknown field", "comment", []string{"carla", "Anna", "Ben"}},
		{"name", "name", []string{"Anna", "Ben", "carla"}},
		{"priority desc keeps roster order on ties", "-priority", []string{"Anna", "Ben", "carla"}},
		{"class then name desc", "class,-name", []string{"Anna", "carla", "Ben"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students := roster()
			student.Sort(students, core.ParseOrderings(tt.ordering))
			assert.Equal(t, tt.want, names(students))
		})
	}
}
