package club_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/minutes"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	"github.com/pioneiros/colina/storage/database/testutil"
)

func TestService_CreateMember(t *testing.T) {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	svc := club.NewService(gormrepos.NewClubRepository(db), validate)
	ctx := context.Background()

	unit := testutil.CreateUnit(t, db, "Águia")
	testutil.CreateMember(t, db, unit.ID, "Ana", "1001", club.RolePathfinder)

	tests := []struct {
		name      string
		data      club.NewMember
		wantErr   bool
		wantField string
	}{
		{name: "missing fields", data: club.NewMember{}, wantErr: true},
		{name: "invalid cargo", data: club.NewMember{Name: "Bia", UnitID: unit.ID, SGC: "1002", Role: "Chefe"}, wantErr: true},
		{name: "invalid sgc", data: club.NewMember{Name: "Bia", UnitID: unit.ID, SGC: "10 02", Role: club.RolePathfinder}, wantErr: true},
		{
			name: "unknown unit", data: club.NewMember{Name: "Bia", UnitID: 999, SGC: "1002", Role: club.RolePathfinder},
			wantErr: true, wantField: "unit_id",
		},
		{
			name: "sgc taken", data: club.NewMember{Name: "Bia", UnitID: unit.ID, SGC: " 1001 ", Role: club.RolePathfinder},
			wantErr: true, wantField: "sgc_code",
		},
		{name: "valid", data: club.NewMember{Name: "  Bia ", UnitID: unit.ID, SGC: "1002", Role: club.RoleCounselor}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mbr, err := svc.CreateMember(ctx, tt.data)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotZero(t, mbr.ID)
				assert.Equal(t, "Bia", mbr.Name)
				return
			}
			require.Error(t, err)
			if tt.wantField != "" {
				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr), "want a ValidationError, got %T", err)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				return
			}
			var fErrs validator.ValidationErrors
			assert.True(t, errors.As(err, &fErrs), "want validator errors, got %T", err)
		})
	}
}

func TestService_QueryMembers(t *testing.T) {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	svc := club.NewService(gormrepos.NewClubRepository(db), validate)
	ctx := context.Background()

	eagle := testutil.CreateUnit(t, db, "Águia")
	lion := testutil.CreateUnit(t, db, "Leão")
	carla := testutil.CreateMember(t, db, eagle.ID, "Carla", "3", club.RolePathfinder)
	ana := testutil.CreateMember(t, db, lion.ID, "Ana", "1", club.RoleCounselor)
	bruno := testutil.CreateMember(t, db, eagle.ID, "Bruno", "2", club.RolePathfinder)

	names := func(mbrs []club.MemberDetail) []string {
		out := make([]string, len(mbrs))
		for i, m := range mbrs {
			out[i] = m.Name
		}
		return out
	}

	tests := []struct {
		name     string
		filter   club.MemberFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all by name", want: []string{ana.Name, bruno.Name, carla.Name}},
		{name: "by unit", filter: club.MemberFilter{UnitID: eagle.ID}, want: []string{bruno.Name, carla.Name}},
		{name: "by cargo", filter: club.MemberFilter{Role: club.RoleCounselor}, want: []string{ana.Name}},
		{name: "search sgc", filter: club.MemberFilter{Search: "3"}, want: []string{carla.Name}},
		{name: "search name", filter: club.MemberFilter{Search: " BRU "}, want: []string{bruno.Name}},
		{
			name: "order by -sgc_code", ordering: []core.DBOrdering{{Field: "sgc_code"}},
			want: []string{carla.Name, bruno.Name, ana.Name},
		},
		{
			name: "unknown ordering falls back", ordering: []core.DBOrdering{{Field: "codigo_sgc", Ascending: true}},
			want: []string{ana.Name, bruno.Name, carla.Name},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.QueryMembers(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}

	got, err := svc.QueryMembers(ctx, club.MemberFilter{UnitID: lion.ID}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Leão", got[0].UnitName)
}

func TestService_Units(t *testing.T) {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	svc := club.NewService(gormrepos.NewClubRepository(db), validate)
	ctx := context.Background()

	eagle, err := svc.CreateUnit(ctx, club.NewUnit{Name: " Águia "})
	require.NoError(t, err)
	assert.Equal(t, "Águia", eagle.Name)

	_, err = svc.CreateUnit(ctx, club.NewUnit{Name: "Águia"})
	assert.True(t, errors.Is(err, club.ErrUnitExists), "duplicate name: %v", err)

	lion, err := svc.CreateUnit(ctx, club.NewUnit{Name: "Leão"})
	require.NoError(t, err)

	_, err = svc.UpdateUnit(ctx, lion.ID, club.NewUnit{Name: "Águia"})
	assert.True(t, errors.Is(err, club.ErrUnitExists), "rename to taken name: %v", err)

	lion, err = svc.UpdateUnit(ctx, lion.ID, club.NewUnit{Name: "Leão Dourado"})
	require.NoError(t, err)
	assert.Equal(t, "Leão Dourado", lion.Name)

	_, err = svc.UpdateUnit(ctx, 999, club.NewUnit{Name: "X"})
	assert.Equal(t, club.ErrUnitNotFound, err)

	testutil.CreateMember(t, db, eagle.ID, "Ana", "1", club.RolePathfinder)
	err = svc.DeleteUnit(ctx, eagle.ID)
	assert.True(t, errors.Is(err, club.ErrUnitInUse), "unit with members: %v", err)

	require.NoError(t, svc.DeleteUnit(ctx, lion.ID))
	_, err = svc.GetUnit(ctx, lion.ID)
	assert.Equal(t, club.ErrUnitNotFound, err)
}

func TestService_DeleteMeeting(t *testing.T) {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	svc := club.NewService(gormrepos.NewClubRepository(db), validate)
	ctx := context.Background()

	free := testutil.CreateMeeting(t, db, "Reunião 1", testutil.Date(2024, 3, 2))
	withMinutes := testutil.CreateMeeting(t, db, "Reunião 2", testutil.Date(2024, 3, 9))
	require.NoError(t, db.Create(&minutes.Minute{MeetingID: withMinutes.ID, Title: "Ata 1", Description: "..."}).Error)

	tests := []struct {
		name    string
		id      int
		wantErr error
	}{
		{name: "unknown meeting", id: 999, wantErr: club.ErrMeetingNotFound},
		{name: "meeting with minutes", id: withMinutes.ID, wantErr: club.ErrMeetingInUse},
		{name: "free meeting", id: free.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.DeleteMeeting(ctx, tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "DeleteMeeting() error = %v, wantErr %v", err, tt.wantErr)
		})
	}
}

func TestService_CreateMeeting(t *testing.T) {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	svc := club.NewService(gormrepos.NewClubRepository(db), validate)

	mtg, err := svc.CreateMeeting(context.Background(), club.NewMeeting{Name: "Abertura", Date: testutil.Date(2024, 2, 3).Add(15 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(2024, 2, 3), mtg.Date)

	_, err = svc.CreateMeeting(context.Background(), club.NewMeeting{Name: "Sem data"})
	assert.Error(t, err)
}
