package classroom_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/classroom"
	"github.com/trezcool/classroom/core/user"
	"github.com/trezcool/classroom/storage/database/sqlx"
	"github.com/trezcool/classroom/tests"
)

type deps struct {
	svc     *classroom.Service
	clsRepo classroom.Repository
	usrRepo user.Repository
}

func setup(t *testing.T) deps {
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	clsRepo := sqlxrepos.NewClassroomRepository(db)
	return deps{
		svc:     classroom.NewService(db, clsRepo, usrRepo, core.NewValidator()),
		clsRepo: clsRepo,
		usrRepo: usrRepo,
	}
}

func TestService_Create(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw1", user.RoleTeacher, "Mr T")
	student := testutil.CreateUser(t, d.usrRepo, "s@x.com", "pw2", user.RoleStudent)

	tests := []struct {
		name    string
		nc      classroom.NewClassroom
		wantErr func(err error) bool
	}{
		{name: "blank name", nc: classroom.NewClassroom{Name: "  ", TeacherID: teacher.ID}, wantErr: core.IsValidation},
		{name: "name too long", nc: classroom.NewClassroom{Name: strings.Repeat("a", 101), TeacherID: teacher.ID}, wantErr: core.IsValidation},
		{name: "section too long", nc: classroom.NewClassroom{Name: "Algebra", Section: strings.Repeat("a", 51), TeacherID: teacher.ID}, wantErr: core.IsValidation},
		{name: "not a teacher", nc: classroom.NewClassroom{Name: "Algebra", TeacherID: student.ID}, wantErr: core.IsValidation},
		{name: "teacher not found", nc: classroom.NewClassroom{Name: "Algebra", TeacherID: teacher.ID + 100}, wantErr: core.IsNotFound},
		{name: "success", nc: classroom.NewClassroom{Name: " Algebra ", Section: "A", TeacherID: teacher.ID}},
		{name: "success without section", nc: classroom.NewClassroom{Name: strings.Repeat("a", 100), TeacherID: teacher.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls, err := d.svc.Create(ctx, tt.nc)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error type: %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, cls.ID)
			assert.Equal(t, strings.TrimSpace(tt.nc.Name), cls.Name)
			assert.Equal(t, tt.nc.Section, cls.Section)
			assert.True(t, classroom.IsValidJoinCode(cls.ClassCode), "invalid code %q", cls.ClassCode)
			assert.Equal(t, teacher.ID, cls.Teacher.ID)
			assert.Equal(t, "Mr T", cls.Teacher.FullName)
		})
	}
}

func TestService_Create_distinctCodes(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw1", user.RoleTeacher)

	n := 50
	codes := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		cls, err := d.svc.Create(ctx, classroom.NewClassroom{Name: "Class", TeacherID: teacher.ID})
		require.NoError(t, err)
		require.Len(t, cls.ClassCode, classroom.JoinCodeLength)
		codes[cls.ClassCode] = struct{}{}
	}
	assert.Len(t, codes, n)
}

func TestService_Create_codeCollision(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw1", user.RoleTeacher)
	testutil.CreateClassroom(t, d.clsRepo, "Taken", "AAAAAAAAAA", teacher)

	t.Run("retries until a free code", func(t *testing.T) {
		calls := 0
		restore := classroom.SetJoinCodeGenerator(func() (string, error) {
			calls++
			if calls < 3 {
				return "AAAAAAAAAA", nil
			}
			return "BBBBBBBBBB", nil
		})
		defer restore()

		cls, err := d.svc.Create(ctx, classroom.NewClassroom{Name: "Algebra", TeacherID: teacher.ID})
		require.NoError(t, err)
		assert.Equal(t, "BBBBBBBBBB", cls.ClassCode)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		restore := classroom.SetJoinCodeGenerator(func() (string, error) {
			calls++
			return "AAAAAAAAAA", nil
		})
		defer restore()

		_, err := d.svc.Create(ctx, classroom.NewClassroom{Name: "Geometry", TeacherID: teacher.ID})
		require.Error(t, err)
		assert.False(t, core.IsConflict(err) || core.IsValidation(err) || core.IsNotFound(err))
		assert.Equal(t, classroom.MaxJoinCodeAttempts, calls)

		classrooms, err := d.svc.ListForUser(ctx, teacher)
		require.NoError(t, err)
		assert.Len(t, classrooms, 2) // Taken & Algebra
	})

	t.Run("random source failure", func(t *testing.T) {
		restore := classroom.SetJoinCodeGenerator(func() (string, error) {
			return "", errors.New("entropy exhausted")
		})
		defer restore()

		_, err := d.svc.Create(ctx, classroom.NewClassroom{Name: "Geometry", TeacherID: teacher.ID})
		assert.EqualError(t, err, "entropy exhausted")
	})
}

func TestService_Join(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw1", user.RoleTeacher)
	student := testutil.CreateUser(t, d.usrRepo, "s@x.com", "pw2", user.RoleStudent)
	cls := testutil.CreateClassroom(t, d.clsRepo, "Algebra", "Code123456", teacher)

	tests := []struct {
		name      string
		code      string
		studentID int
		wantErr   error
		wantErrFn func(err error) bool
	}{
		{name: "empty code", code: " ", studentID: student.ID, wantErrFn: core.IsValidation},
		{name: "malformed code", code: "Code12345!", studentID: student.ID, wantErr: classroom.ErrInvalidCode},
		{name: "code too short", code: "Code12345", studentID: student.ID, wantErr: classroom.ErrInvalidCode},
		{name: "unknown code", code: "Nope123456", studentID: student.ID, wantErr: classroom.ErrInvalidCode},
		{name: "code is case sensitive", code: "CODE123456", studentID: student.ID, wantErr: classroom.ErrInvalidCode},
		{name: "teacher cannot join", code: "Code123456", studentID: teacher.ID, wantErrFn: core.IsValidation},
		{name: "unknown student", code: "Code123456", studentID: student.ID + 100, wantErr: user.ErrNotFound},
		{name: "success", code: " Code123456 ", studentID: student.ID},
		{name: "already a member", code: "Code123456", studentID: student.ID, wantErr: classroom.ErrAlreadyMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.svc.Join(ctx, tt.code, tt.studentID)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrFn != nil:
				require.Error(t, err)
				assert.True(t, tt.wantErrFn(err), "unexpected error type: %v", err)
			default:
				require.NoError(t, err)
				assert.Equal(t, cls.ID, got.ID)
				assert.Equal(t, teacher.ID, got.Teacher.ID)
			}
		})
	}

	got, err := d.svc.Get(ctx, cls.ID)
	require.NoError(t, err)
	require.Len(t, got.Students, 1)
	assert.Equal(t, student.ID, got.Students[0].ID)
}

func TestService_Join_listGrowsByOne(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw1", user.RoleTeacher)
	student := testutil.CreateUser(t, d.usrRepo, "s@x.com", "pw2", user.RoleStudent)
	cls1 := testutil.CreateClassroom(t, d.clsRepo, "Algebra", "AAAAAAAAAA", teacher)
	cls2 := testutil.CreateClassroom(t, d.clsRepo, "Geometry", "BBBBBBBBBB", teacher)
	testutil.AddStudent(t, d.clsRepo, cls1, student)

	before, err := d.svc.ListForUser(ctx, student)
	require.NoError(t, err)
	require.Len(t, before, 1)

	_, err = d.svc.Join(ctx, cls2.ClassCode, student.ID)
	require.NoError(t, err)
	_, err = d.svc.Join(ctx, cls2.ClassCode, student.ID)
	assert.True(t, core.IsConflict(err))

	after, err := d.svc.ListForUser(ctx, student)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
}

func TestService_Join_concurrent(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw1", user.RoleTeacher)
	student := testutil.CreateUser(t, d.usrRepo, "s@x.com", "pw2", user.RoleStudent)
	cls := testutil.CreateClassroom(t, d.clsRepo, "Algebra", "AAAAAAAAAA", teacher)

	n := 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = d.svc.Join(ctx, cls.ClassCode, student.ID)
		}(i)
	}
	wg.Wait()

	var joined, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			joined++
		case core.IsConflict(err):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, joined)
	assert.Equal(t, n-1, conflicts)

	got, err := d.svc.Get(ctx, cls.ID)
	require.NoError(t, err)
	assert.Len(t, got.Students, 1)
}

func TestService_ListForUser(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher1 := testutil.CreateUser(t, d.usrRepo, "t1@x.com", "pw", user.RoleTeacher, "T1")
	teacher2 := testutil.CreateUser(t, d.usrRepo, "t2@x.com", "pw", user.RoleTeacher, "T2")
	student := testutil.CreateUser(t, d.usrRepo, "s@x.com", "pw", user.RoleStudent)
	loner := testutil.CreateUser(t, d.usrRepo, "l@x.com", "pw", user.RoleStudent)

	cls1 := testutil.CreateClassroom(t, d.clsRepo, "Algebra", "AAAAAAAAAA", teacher1)
	cls2 := testutil.CreateClassroom(t, d.clsRepo, "Geometry", "BBBBBBBBBB", teacher1)
	cls3 := testutil.CreateClassroom(t, d.clsRepo, "History", "CCCCCCCCCC", teacher2)
	testutil.AddStudent(t, d.clsRepo, cls1, student)
	testutil.AddStudent(t, d.clsRepo, cls3, student)

	ids := func(classrooms []classroom.Classroom) []int {
		res := make([]int, 0, len(classrooms))
		for _, cls := range classrooms {
			res = append(res, cls.ID)
		}
		return res
	}

	tests := []struct {
		name         string
		usr          user.User
		want         []int
		wantTeachers []string
	}{
		{name: "teacher owns", usr: teacher1, want: []int{cls1.ID, cls2.ID}, wantTeachers: []string{"T1", "T1"}},
		{name: "other teacher", usr: teacher2, want: []int{cls3.ID}, wantTeachers: []string{"T2"}},
		{name: "student joined", usr: student, want: []int{cls1.ID, cls3.ID}, wantTeachers: []string{"T1", "T2"}},
		{name: "student without classrooms", usr: loner, want: []int{}, wantTeachers: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.svc.ListForUser(ctx, tt.usr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))

			teachers := make([]string, 0, len(got))
			for _, cls := range got {
				teachers = append(teachers, cls.Teacher.FullName)
			}
			assert.Equal(t, tt.wantTeachers, teachers)
		})
	}

	_, err := d.svc.ListForUser(ctx, user.User{ID: teacher1.ID, Role: "admin"})
	assert.Error(t, err)
}

func TestService_Get(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw", user.RoleTeacher)
	s1 := testutil.CreateUser(t, d.usrRepo, "s1@x.com", "pw", user.RoleStudent)
	s2 := testutil.CreateUser(t, d.usrRepo, "s2@x.com", "pw", user.RoleStudent)
	cls := testutil.CreateClassroom(t, d.clsRepo, "Algebra", "AAAAAAAAAA", teacher)
	empty := testutil.CreateClassroom(t, d.clsRepo, "Geometry", "BBBBBBBBBB", teacher)
	testutil.AddStudent(t, d.clsRepo, cls, s1)
	testutil.AddStudent(t, d.clsRepo, cls, s2)

	got, err := d.svc.Get(ctx, cls.ID)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", got.Name)
	assert.Equal(t, teacher.Email, got.Teacher.Email)
	require.Len(t, got.Students, 2)
	assert.Equal(t, s1.ID, got.Students[0].ID)
	assert.Equal(t, s2.ID, got.Students[1].ID)
	assert.Empty(t, got.Students[0].PasswordHash)

	got, err = d.svc.Get(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Students)

	_, err = d.svc.Get(ctx, empty.ID+100)
	assert.Equal(t, classroom.ErrNotFound, err)
}

func TestService_HasMember(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw", user.RoleTeacher)
	other := testutil.CreateUser(t, d.usrRepo, "o@x.com", "pw", user.RoleTeacher)
	member := testutil.CreateUser(t, d.usrRepo, "m@x.com", "pw", user.RoleStudent)
	stranger := testutil.CreateUser(t, d.usrRepo, "s@x.com", "pw", user.RoleStudent)
	cls := testutil.CreateClassroom(t, d.clsRepo, "Algebra", "AAAAAAAAAA", teacher)
	testutil.AddStudent(t, d.clsRepo, cls, member)

	tests := []struct {
		name string
		usr  user.User
		want bool
	}{
		{name: "owner", usr: teacher, want: true},
		{name: "other teacher", usr: other, want: false},
		{name: "member", usr: member, want: true},
		{name: "stranger", usr: stranger, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.svc.HasMember(ctx, cls, tt.usr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Delete(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, d.usrRepo, "t@x.com", "pw", user.RoleTeacher)
	student := testutil.CreateUser(t, d.usrRepo, "s@x.com", "pw", user.RoleStudent)
	cls := testutil.CreateClassroom(t, d.clsRepo, "Algebra", "AAAAAAAAAA", teacher)
	testutil.AddStudent(t, d.clsRepo, cls, student)

	require.NoError(t, d.svc.Delete(ctx, cls.ID))
	assert.Equal(t, classroom.ErrNotFound, d.svc.Delete(ctx, cls.ID))

	_, err := d.svc.Get(ctx, cls.ID)
	assert.Equal(t, classroom.ErrNotFound, err)

	classrooms, err := d.svc.ListForUser(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, classrooms)

	// users survive
	_, err = d.usrRepo.GetUserByID(ctx, student.ID)
	assert.NoError(t, err)
}
