package attendance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/attendance"
	"github.com/pioneiros/colina/core/club"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	sqlxrepos "github.com/pioneiros/colina/storage/database/sqlx"
	"github.com/pioneiros/colina/storage/database/testutil"
)

func TestService_SheetAndRegister(t *testing.T) {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	clubSvc := club.NewService(gormrepos.NewClubRepository(db), validate)
	svc := attendance.NewService(
		gormrepos.NewAttendanceRepository(db),
		sqlxrepos.NewStatsRepository(testutil.SQLX(t, db)),
		clubSvc,
		validate,
	)
	ctx := context.Background()

	eagle := testutil.CreateUnit(t, db, "Aguia")
	lion := testutil.CreateUnit(t, db, "Leao")
	counselor := testutil.CreateMember(t, db, eagle.ID, "Carla", "1", club.RoleCounselor)
	ana := testutil.CreateMember(t, db, eagle.ID, "Ana", "2", club.RolePathfinder)
	bruno := testutil.CreateMember(t, db, eagle.ID, "Bruno", "3", club.RolePathfinder)
	outsider := testutil.CreateMember(t, db, lion.ID, "Davi", "4", club.RolePathfinder)
	mtg := testutil.CreateMeeting(t, db, "Abertura", testutil.Date(2024, 3, 2))

	sheet, err := svc.Sheet(ctx, mtg.ID, eagle.ID)
	require.NoError(t, err)
	require.Len(t, sheet.Groups, 2)
	assert.Equal(t, club.RoleCounselor, sheet.Groups[0].Role)
	assert.Equal(t, club.RolePathfinder, sheet.Groups[1].Role)
	assert.Equal(t, []string{"Ana", "Bruno"}, []string{sheet.Groups[1].Members[0].Name, sheet.Groups[1].Members[1].Name})
	assert.False(t, sheet.Groups[1].Members[0].Saved)

	tests := []struct {
		name      string
		meetingID int
		unitID    int
		reg       attendance.Register
		wantErr   error
		wantAny   bool
	}{
		{name: "unknown meeting", meetingID: 999, unitID: eagle.ID, reg: attendance.Register{Entries: []attendance.Entry{{MemberID: ana.ID}}}, wantErr: club.ErrMeetingNotFound},
		{name: "unknown unit", meetingID: mtg.ID, unitID: 999, reg: attendance.Register{Entries: []attendance.Entry{{MemberID: ana.ID}}}, wantErr: club.ErrUnitNotFound},
		{name: "empty sheet", meetingID: mtg.ID, unitID: eagle.ID, wantAny: true},
		{
			name: "presence is all or nothing", meetingID: mtg.ID, unitID: eagle.ID,
			reg: attendance.Register{Entries: []attendance.Entry{{MemberID: ana.ID, Presence: 5}}}, wantAny: true,
		},
		{
			name: "member of another unit", meetingID: mtg.ID, unitID: eagle.ID,
			reg: attendance.Register{Entries: []attendance.Entry{{MemberID: outsider.ID, Presence: 10}}}, wantErr: attendance.ErrNotInUnit,
		},
		{
			name: "valid", meetingID: mtg.ID, unitID: eagle.ID,
			reg: attendance.Register{Entries: []attendance.Entry{
				{MemberID: ana.ID, Presence: 10, Punctuality: 10, Uniform: 5, Modesty: 10},
				{MemberID: bruno.ID, Presence: 0},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(ctx, tt.meetingID, tt.unitID, tt.reg)
			switch {
			case tt.wantAny:
				assert.Error(t, err)
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "Register() error = %v, wantErr %v", err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}

	// registering again replaces the saved scores
	require.NoError(t, svc.Register(ctx, mtg.ID, eagle.ID, attendance.Register{Entries: []attendance.Entry{
		{MemberID: ana.ID, Presence: 10, Punctuality: 10, Uniform: 10, Modesty: 10},
		{MemberID: counselor.ID, Presence: 10},
	}}))

	sheet, err = svc.Sheet(ctx, mtg.ID, eagle.ID)
	require.NoError(t, err)
	entry := sheet.Groups[1].Members[0]
	assert.True(t, entry.Saved)
	assert.Equal(t, 40, entry.Total())

	records, err := svc.Query(ctx, attendance.Filter{MeetingID: mtg.ID})
	require.NoError(t, err)
	require.Len(t, records, 3)
	totals := make(map[string]int)
	for _, r := range records {
		totals[r.MemberName] = r.Total
	}
	assert.Equal(t, map[string]int{"Ana": 40, "Bruno": 0, "Carla": 10}, totals)

	members, err := svc.MemberTotals(ctx, eagle.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "Ana", members[0].Name)
	assert.Equal(t, 40, members[0].Total)
	assert.Equal(t, "Bruno", members[2].Name)
}

func TestService_Scores(t *testing.T) {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	clubSvc := club.NewService(gormrepos.NewClubRepository(db), validate)
	svc := attendance.NewService(
		gormrepos.NewAttendanceRepository(db),
		sqlxrepos.NewStatsRepository(testutil.SQLX(t, db)),
		clubSvc,
		validate,
	)
	ctx := context.Background()

	eagle := testutil.CreateUnit(t, db, "Aguia")
	lion := testutil.CreateUnit(t, db, "Leao")
	ana := testutil.CreateMember(t, db, eagle.ID, "Ana", "1", club.RolePathfinder)
	davi := testutil.CreateMember(t, db, lion.ID, "Davi", "2", club.RolePathfinder)
	m2024 := testutil.CreateMeeting(t, db, "R1", testutil.Date(2024, 3, 2))
	m2025 := testutil.CreateMeeting(t, db, "R2", testutil.Date(2025, 3, 1))

	full := attendance.Entry{Presence: 10, Punctuality: 10, Uniform: 10, Modesty: 10}
	register := func(mtgID, unitID, mbrID int, e attendance.Entry) {
		e.MemberID = mbrID
		require.NoError(t, svc.Register(ctx, mtgID, unitID, attendance.Register{Entries: []attendance.Entry{e}}))
	}
	register(m2024.ID, eagle.ID, ana.ID, full)
	register(m2024.ID, lion.ID, davi.ID, attendance.Entry{Presence: 10})
	register(m2025.ID, lion.ID, davi.ID, full)

	ranking, err := svc.Ranking(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, "Leao", ranking[0].UnitName)
	assert.Equal(t, 50, ranking[0].Total)

	ranking, err = svc.Ranking(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, "Aguia", ranking[0].UnitName)

	rows, err := svc.Breakdown(ctx, lion.ID, attendance.PeriodYear)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024", rows[0].Period)
	assert.Equal(t, 10, rows[0].Total)
	assert.Equal(t, "2025", rows[1].Period)

	_, err = svc.Breakdown(ctx, lion.ID, "semana")
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = svc.Breakdown(ctx, 999, attendance.PeriodYear)
	assert.Equal(t, club.ErrUnitNotFound, err)

	rows, err = svc.PeriodReport(ctx, attendance.PeriodMonth, 2025)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-03", rows[0].Period)
	assert.Equal(t, 40, rows[0].Total)
}
