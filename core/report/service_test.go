package report_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/attendance"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/inventory"
	"github.com/pioneiros/colina/core/minutes"
	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/report"
	"github.com/pioneiros/colina/core/treasury"
	spreadsheetsvc "github.com/pioneiros/colina/services/spreadsheet"
	sqlxrepos "github.com/pioneiros/colina/storage/database/sqlx"
	"github.com/pioneiros/colina/storage/database/testutil"
)

type attendanceStub struct {
	period string
	year   int
	rows   []attendance.PeriodRow
}

func (s *attendanceStub) PeriodReport(_ context.Context, period string, year int) ([]attendance.PeriodRow, error) {
	s.period, s.year = period, year
	return s.rows, nil
}

func create(t *testing.T, db *gorm.DB, values ...interface{}) {
	for _, v := range values {
		require.NoError(t, db.Create(v).Error, "create %T", v)
	}
}

func setup(t *testing.T) (*report.Service, *attendanceStub) {
	db := testutil.PrepareDB(t)

	eagles := testutil.CreateUnit(t, db, "Aguia")
	lions := testutil.CreateUnit(t, db, "Leao")
	testutil.CreateMember(t, db, eagles.ID, "Ana", "1", club.RolePathfinder)
	testutil.CreateMember(t, db, eagles.ID, "Bruno", "2", club.RolePathfinder)
	testutil.CreateMember(t, db, lions.ID, "Carla", "3", club.RoleCounselor)
	march := testutil.CreateMeeting(t, db, "Reuniao de marco", testutil.Date(2024, 3, 2))

	event := treasury.Event{Name: "Acampamento", Value: 120}
	create(t, db, &event)
	create(t, db,
		&treasury.CashEntry{Type: treasury.EntryIn, Description: "Inscricao", Value: 120, Date: testutil.Date(2024, 3, 5), EventID: null.IntFrom(event.ID)},
		&treasury.CashEntry{Type: treasury.EntryOut, Description: "Lanche", Value: 35.5, Date: testutil.Date(2024, 2, 10)},
		&inventory.Asset{Name: "Corda", Quantity: 10, AcquiredAt: testutil.Date(2021, 5, 2)},
		&inventory.Asset{Name: "Barraca", Quantity: 3, Category: null.StringFrom("Camping"), AcquiredAt: testutil.Date(2020, 1, 10)},
	)

	minute := minutes.Minute{MeetingID: march.ID, Title: "Ata 1", Description: "Abertura"}
	empty := minutes.Minute{MeetingID: march.ID, Title: "Ata 2", Description: "Encerramento"}
	create(t, db, &minute, &empty)
	create(t, db,
		&minutes.Act{MinuteID: minute.ID, Title: "Ato 1", Description: "Hino", UnitID: eagles.ID},
		&minutes.Act{MinuteID: minute.ID, Title: "Ato 2", Description: "Oracao", UnitID: lions.ID},
	)

	dues := treasury.Dues{Year: 2024, Month: 1, Value: 15}
	feb := treasury.Dues{Year: 2024, Month: 2, Value: 15}
	old := treasury.Dues{Year: 2023, Month: 12, Value: 10}
	create(t, db, &dues, &feb, &old)
	create(t, db,
		&treasury.MemberDues{SGC: "1", DuesID: dues.ID, Status: treasury.StatusPaid},
		&treasury.MemberDues{SGC: "1", DuesID: feb.ID, Status: treasury.StatusPending},
		&treasury.MemberDues{SGC: "1", DuesID: old.ID, Status: treasury.StatusPending},
		&treasury.MemberDues{SGC: "2", DuesID: dues.ID, Status: treasury.StatusExempt},
	)

	create(t, db,
		&progress.Class{Code: "AM", Name: "Amigo"},
		&progress.Class{Code: "CO", Name: "Companheiro"},
		&progress.MemberClass{SGC: "1", ClassCode: "CO"},
		&progress.MemberClass{SGC: "1", ClassCode: "AM"},
		&progress.MemberClass{SGC: "3", ClassCode: "AM"},
	)

	stub := &attendanceStub{}
	svc := report.NewService(sqlxrepos.NewReportRepository(testutil.SQLX(t, db)), stub, spreadsheetsvc.NewExcel())
	return svc, stub
}

func TestService_Build(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		params   report.Params
		wantRows [][]interface{}
	}{
		{
			name: report.CashFlow,
			wantRows: [][]interface{}{
				{"10/02/2024", treasury.EntryOut, "Lanche", 35.5, ""},
				{"05/03/2024", treasury.EntryIn, "Inscricao", 120.0, "Acampamento"},
			},
		},
		{
			name: report.Assets,
			wantRows: [][]interface{}{
				{"Barraca", 3, "Camping", "", "10/01/2020"},
				{"Corda", 10, "", "", "02/05/2021"},
			},
		},
		{
			name: report.MinutesBook,
			wantRows: [][]interface{}{
				{"Reuniao de marco", "02/03/2024", "Ata 1", "Abertura", "Ato 1", "Hino", "Aguia"},
				{"Reuniao de marco", "02/03/2024", "Ata 1", "Abertura", "Ato 2", "Oracao", "Leao"},
				{"Reuniao de marco", "02/03/2024", "Ata 2", "Encerramento", "", "", ""},
			},
		},
		{
			name: report.DuesSummary,
			wantRows: [][]interface{}{
				{"Ana", "1", 1, 2, 0},
				{"Bruno", "2", 0, 0, 1},
			},
		},
		{
			name:   report.DuesSummary,
			params: report.Params{Year: 2024},
			wantRows: [][]interface{}{
				{"Ana", "1", 1, 1, 0},
				{"Bruno", "2", 0, 0, 1},
			},
		},
		{
			name: report.UnitClasses,
			wantRows: [][]interface{}{
				{"Aguia", "Ana", club.RolePathfinder, "AM, CO"},
				{"Aguia", "Bruno", club.RolePathfinder, ""},
				{"Leao", "Carla", club.RoleCounselor, "AM"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Build(ctx, tt.name, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.name, got.Name)
			for _, row := range got.Rows {
				assert.Len(t, row, len(got.Columns))
			}
			assert.Equal(t, tt.wantRows, got.Rows)
		})
	}

	got, err := svc.Build(ctx, report.DuesSummary, report.Params{Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "Mensalidades 2024", got.Title)
	assert.Equal(t, "mensalidades_2024.xlsx", got.FileName())

	got, err = svc.Build(ctx, report.UnitSpecialty, report.Params{})
	require.NoError(t, err)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, "", got.Rows[0][3])

	_, err = svc.Build(ctx, "desconhecido", report.Params{})
	assert.Equal(t, report.ErrUnknownReport, err)
}

func TestService_Attendance(t *testing.T) {
	svc, stub := setup(t)
	ctx := context.Background()

	stub.rows = []attendance.PeriodRow{{
		UnitID: 1, UnitName: "Aguia", Period: "2024-03",
		Scores: attendance.Scores{Presence: 10, Punctuality: 8, Uniform: 6, Modesty: 4},
		Total:  28,
	}}

	got, err := svc.Build(ctx, report.Attendance, report.Params{Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, attendance.PeriodMonth, stub.period, "month is the default period")
	assert.Equal(t, 2024, stub.year)
	assert.Equal(t, [][]interface{}{{"2024-03", "Aguia", 10, 8, 6, 4, 28}}, got.Rows)

	_, err = svc.Build(ctx, report.Attendance, report.Params{Period: attendance.PeriodYear})
	require.NoError(t, err)
	assert.Equal(t, attendance.PeriodYear, stub.period)

	_, err = svc.Build(ctx, report.Attendance, report.Params{Period: "semana"})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "Build() error = %v", err)
	assert.Equal(t, "period", verr.Fields[0].Field)
}

func TestService_Export(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	var buf bytes.Buffer
	got, err := svc.Export(ctx, report.Assets, report.Params{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "patrimônio.xlsx", got.FileName())

	rows, err := spreadsheetsvc.NewExcel().ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, got.Columns, rows[0])
	assert.Equal(t, "Barraca", rows[1][0])
	assert.Equal(t, "3", rows[1][1])

	buf.Reset()
	_, err = svc.Export(ctx, "desconhecido", report.Params{}, &buf)
	assert.Equal(t, report.ErrUnknownReport, err)
	assert.Zero(t, buf.Len())
}
