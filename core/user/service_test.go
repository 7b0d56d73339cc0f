package user_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/user"
	emailsvc "github.com/pioneiros/colina/services/email"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	"github.com/pioneiros/colina/storage/database/testutil"
)

func TestMain(m *testing.M) {
	testutil.ParseEmailTemplates()
	os.Exit(m.Run())
}

type fixture struct {
	svc    user.Service
	repo   user.Repository
	member club.Member
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	clubSvc := club.NewService(gormrepos.NewClubRepository(db), validate)
	repo := gormrepos.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(core.NewTestConfig())

	unit := testutil.CreateUnit(t, db, "Águia")
	mbr := testutil.CreateMember(t, db, unit.ID, "Ana", "1001", club.RoleCounselor)
	testutil.CreateMember(t, db, unit.ID, "Bia", "1002", club.RolePathfinder)

	return fixture{
		svc:    user.NewServiceMock(repo, clubSvc, mailSvc, validate),
		repo:   repo,
		member: mbr,
	}
}

func fieldOf(t *testing.T, err error) string {
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) || len(vErr.Fields) == 0 {
		t.Fatalf("want a field ValidationError, got %v (%T)", err, err)
	}
	return vErr.Fields[0].Field
}

func TestService_Create(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	testutil.CreateUser(t, fx.repo, "ana", "", "1001", user.PermAdmin, "pwd")

	valid := user.NewUser{
		Login: " Bia ", SGC: "1002", Permission: user.PermTeam, Password: "s3cret", PasswordConfirm: "s3cret",
	}

	tests := []struct {
		name      string
		data      func(nu user.NewUser) user.NewUser
		wantField string
	}{
		{name: "unknown member", data: func(nu user.NewUser) user.NewUser { nu.SGC = "9999"; return nu }, wantField: "sgc_code"},
		{name: "login taken", data: func(nu user.NewUser) user.NewUser { nu.Login = "ANA"; return nu }, wantField: "login"},
		{name: "member has a user", data: func(nu user.NewUser) user.NewUser { nu.SGC = "1001"; return nu }, wantField: "sgc_code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Create(ctx, tt.data(valid))
			assert.Equal(t, tt.wantField, fieldOf(t, err))
		})
	}

	t.Run("invalid permission", func(t *testing.T) {
		nu := valid
		nu.Permission = "root"
		_, err := fx.svc.Create(ctx, nu)
		assert.Error(t, err)
	})

	t.Run("passwords mismatch", func(t *testing.T) {
		nu := valid
		nu.PasswordConfirm = "other"
		_, err := fx.svc.Create(ctx, nu)
		assert.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		usr, err := fx.svc.Create(ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, "bia", usr.Login)
		assert.NoError(t, usr.CheckPassword("s3cret"))
	})
}

func TestService_Authenticate(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	ana := testutil.CreateUser(t, fx.repo, "ana", "ana@test.cd", "1001", user.PermAdmin, "pwd")
	testutil.CreateUser(t, fx.repo, "orfao", "", "5555", user.PermTeam, "pwd")

	sum := sha256.Sum256([]byte("legacy"))
	legacy := user.User{Login: "bia", SGC: "1002", Permission: user.PermTeam, PasswordHash: []byte(hex.EncodeToString(sum[:]))}
	legacy, err := fx.repo.CreateUser(ctx, legacy)
	require.NoError(t, err)

	tests := []struct {
		name    string
		login   string
		pwd     string
		wantErr error
	}{
		{name: "unknown login", login: "nobody", pwd: "pwd", wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", login: "ana", pwd: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "no member", login: "orfao", pwd: "pwd", wantErr: user.ErrNoMember},
		{name: "wrong legacy password", login: "bia", pwd: "pwd", wantErr: user.ErrInvalidCredentials},
		{name: "valid", login: " ANA ", pwd: "pwd"},
		{name: "valid legacy", login: "bia", pwd: "legacy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := fx.svc.Authenticate(ctx, tt.login, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, sess.User.LastLogin.IsZero())
			assert.NotEmpty(t, sess.Tabs)
		})
	}

	sess, err := fx.svc.GetSession(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.member.ID, sess.Member.ID)
	assert.Equal(t, user.Tabs(user.PermAdmin), sess.Tabs)

	upgraded, err := fx.svc.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.False(t, upgraded.HasLegacyPassword())
	assert.NoError(t, bcrypt.CompareHashAndPassword(upgraded.PasswordHash, []byte("legacy")))
}

func TestService_Update(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	ana := testutil.CreateUser(t, fx.repo, "ana", "ana@test.cd", "1001", user.PermAdmin, "pwd")
	testutil.CreateUser(t, fx.repo, "bia", "", "1002", user.PermTeam, "pwd")

	_, err := fx.svc.Update(ctx, ana.ID, user.UpdateUser{Login: "bia"})
	assert.Equal(t, "login", fieldOf(t, err))

	_, err = fx.svc.Update(ctx, 999, user.UpdateUser{})
	assert.Equal(t, user.ErrNotFound, err)

	usr, err := fx.svc.Update(ctx, ana.ID, user.UpdateUser{Permission: user.PermCouncil})
	require.NoError(t, err)
	assert.Equal(t, "ana", usr.Login)
	assert.Equal(t, "ana@test.cd", usr.Email)
	assert.Equal(t, user.PermCouncil, usr.Permission)
	assert.NoError(t, usr.CheckPassword("pwd"))

	usr, err = fx.svc.Update(ctx, ana.ID, user.UpdateUser{Password: "n3wpass", PasswordConfirm: "n3wpass"})
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("n3wpass"))
}

func TestService_PasswordReset(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	emailsvc.ResetSentMessages()

	ana := testutil.CreateUser(t, fx.repo, "ana", "ana@test.cd", "1001", user.PermAdmin, "pwd")

	err := fx.svc.RequestPasswordReset(ctx, "nobody@test.cd")
	assert.Equal(t, user.ErrNotFound, err)

	require.NoError(t, fx.svc.RequestPasswordReset(ctx, " ANA@test.cd "))
	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "password_reset", msg.TemplateName)
	data := msg.TemplateData.(map[string]string)

	tests := []struct {
		name    string
		data    user.ResetUserPassword
		wantErr bool
	}{
		{name: "missing fields", data: user.ResetUserPassword{}, wantErr: true},
		{
			name:    "bad uid",
			data:    user.ResetUserPassword{UID: "zz", Token: data["Token"], Password: "n3wpass", PasswordConfirm: "n3wpass"},
			wantErr: true,
		},
		{
			name:    "bad token",
			data:    user.ResetUserPassword{UID: data["UID"], Token: "AAAA-bbbb", Password: "n3wpass", PasswordConfirm: "n3wpass"},
			wantErr: true,
		},
		{name: "valid", data: user.ResetUserPassword{UID: data["UID"], Token: data["Token"], Password: "n3wpass", PasswordConfirm: "n3wpass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fx.svc.ResetPassword(ctx, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}

	usr, err := fx.svc.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("n3wpass"))

	// the token is bound to the old password hash
	err = fx.svc.ResetPassword(ctx, user.ResetUserPassword{UID: data["UID"], Token: data["Token"], Password: "an0ther1", PasswordConfirm: "an0ther1"})
	assert.Error(t, err)
}

func TestTabs(t *testing.T) {
	tests := []struct {
		perm       string
		tab        string
		want       bool
		wantManage bool
	}{
		{perm: user.PermAdmin, tab: user.TabUsers, want: true, wantManage: true},
		{perm: user.PermAdmin, tab: user.TabAssets, want: false, wantManage: true},
		{perm: user.PermSpecialty, tab: user.TabReports, want: true, wantManage: true},
		{perm: user.PermTeam, tab: user.TabUsers, want: false},
		{perm: user.PermCouncil, tab: user.TabClasses, want: true},
		{perm: "nope", tab: user.TabScores, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.perm+"/"+tt.tab, func(t *testing.T) {
			assert.Equal(t, tt.want, user.HasTab(tt.perm, tt.tab))
			assert.Equal(t, tt.wantManage, user.CanManageProgress(tt.perm))
		})
	}
}
