package report

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/attendance"
	"github.com/pioneiros/colina/core/progress"
)

var ErrUnknownReport = core.NewNotFoundError("report")

type (
	// Repository runs the extraction queries.
	Repository interface {
		CashFlow(ctx context.Context) ([]CashFlowRow, error)
		Assets(ctx context.Context) ([]AssetRow, error)
		MinutesBook(ctx context.Context) ([]MinutesRow, error)
		DuesSummary(ctx context.Context, year int) ([]DuesSummaryRow, error)
		// UnitItems returns one row per (member, item) of the class or specialty catalog, members without items included.
		UnitItems(ctx context.Context, kind string) ([]UnitItemRow, error)
	}

	AttendanceReporter interface {
		PeriodReport(ctx context.Context, period string, year int) ([]attendance.PeriodRow, error)
	}

	// Writer encodes a Table as a spreadsheet.
	Writer interface {
		Write(w io.Writer, t Table) error
	}
)

type Service struct {
	repo       Repository
	attendance AttendanceReporter
	writer     Writer
}

func NewService(repo Repository, attendance AttendanceReporter, writer Writer) *Service {
	return &Service{repo: repo, attendance: attendance, writer: writer}
}

// Build runs the named report.
func (svc *Service) Build(ctx context.Context, name string, params Params) (Table, error) {
	switch name {
	case CashFlow:
		return svc.cashFlow(ctx)
	case Assets:
		return svc.assets(ctx)
	case MinutesBook:
		return svc.minutesBook(ctx)
	case DuesSummary:
		return svc.duesSummary(ctx, params.Year)
	case UnitClasses:
		return svc.unitItems(ctx, UnitClasses, progress.KindClass, "Classes")
	case UnitSpecialty:
		return svc.unitItems(ctx, UnitSpecialty, progress.KindSpecialty, "Especialidades")
	case Attendance:
		return svc.attendanceByPeriod(ctx, params)
	default:
		return Table{}, ErrUnknownReport
	}
}

// Export runs the named report and writes it to w as a spreadsheet.
func (svc *Service) Export(ctx context.Context, name string, params Params, w io.Writer) (Table, error) {
	t, err := svc.Build(ctx, name, params)
	if err != nil {
		return Table{}, err
	}
	return t, svc.writer.Write(w, t)
}

func (svc *Service) cashFlow(ctx context.Context) (Table, error) {
	rows, err := svc.repo.CashFlow(ctx)
	if err != nil {
		return Table{}, err
	}
	t := Table{
		Name:    CashFlow,
		Title:   "Fluxo de caixa",
		Columns: []string{"Data", "Tipo", "Descrição", "Valor", "Evento"},
		Rows:    make([][]interface{}, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			r.Date.Format(dateLayout), r.Type, r.Description, core.RoundMoney(r.Value), r.EventName.String,
		})
	}
	return t, nil
}

func (svc *Service) assets(ctx context.Context) (Table, error) {
	rows, err := svc.repo.Assets(ctx)
	if err != nil {
		return Table{}, err
	}
	t := Table{
		Name:    Assets,
		Title:   "Patrimônio",
		Columns: []string{"Nome", "Quantidade", "Categoria", "Descrição", "Data de aquisição"},
		Rows:    make([][]interface{}, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			r.Name, r.Quantity, r.Category.String, r.Description.String, r.AcquiredAt.Format(dateLayout),
		})
	}
	return t, nil
}

func (svc *Service) minutesBook(ctx context.Context) (Table, error) {
	rows, err := svc.repo.MinutesBook(ctx)
	if err != nil {
		return Table{}, err
	}
	t := Table{
		Name:    MinutesBook,
		Title:   "Livro de atas",
		Columns: []string{"Reunião", "Data", "Ata", "Descrição da ata", "Ato", "Descrição do ato", "Unidade"},
		Rows:    make([][]interface{}, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			r.MeetingName, r.MeetingDate.Format(dateLayout), r.MinuteTitle, r.MinuteDescription,
			r.ActTitle.String, r.ActDescription.String, r.UnitName.String,
		})
	}
	return t, nil
}

func (svc *Service) duesSummary(ctx context.Context, year int) (Table, error) {
	rows, err := svc.repo.DuesSummary(ctx, year)
	if err != nil {
		return Table{}, err
	}
	title := "Mensalidades"
	if year > 0 {
		title = title + " " + strconv.Itoa(year)
	}
	t := Table{
		Name:    DuesSummary,
		Title:   title,
		Columns: []string{"Nome", "SGC", "Pagas", "Pendentes", "Isentas"},
		Rows:    make([][]interface{}, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.Name, r.SGC, r.Paid, r.Pending, r.Exempt})
	}
	return t, nil
}

// unitItems joins each member's codes into one cell, keeping the repository order.
func (svc *Service) unitItems(ctx context.Context, name, kind, column string) (Table, error) {
	rows, err := svc.repo.UnitItems(ctx, kind)
	if err != nil {
		return Table{}, err
	}
	t := Table{
		Name:    name,
		Title:   "Unidades e " + strings.ToLower(column),
		Columns: []string{"Unidade", "Membro", "Cargo", column},
		Rows:    [][]interface{}{},
	}
	var (
		lastSGC string
		codes   []string
	)
	flush := func() {
		if len(t.Rows) > 0 {
			t.Rows[len(t.Rows)-1][3] = strings.Join(codes, listSeparator)
		}
		codes = nil
	}
	for _, r := range rows {
		if r.SGC != lastSGC || len(t.Rows) == 0 {
			flush()
			lastSGC = r.SGC
			t.Rows = append(t.Rows, []interface{}{r.UnitName, r.MemberName, r.Role, ""})
		}
		if r.Code.Valid {
			codes = append(codes, r.Code.String)
		}
	}
	flush()
	return t, nil
}

func (svc *Service) attendanceByPeriod(ctx context.Context, params Params) (Table, error) {
	period := params.Period
	if period == "" {
		period = defaultPeriod
	}
	if !attendance.IsPeriod(period) {
		return Table{}, core.NewFieldError("period", attendance.ErrInvalidPeriod)
	}
	rows, err := svc.attendance.PeriodReport(ctx, period, params.Year)
	if err != nil {
		return Table{}, err
	}
	t := Table{
		Name:    Attendance,
		Title:   attendanceName,
		Columns: []string{"Período", "Unidade", "Presença", "Pontualidade", "Uniforme", "Modéstia", "Total"},
		Rows:    make([][]interface{}, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			r.Period, r.UnitName, r.Presence, r.Punctuality, r.Uniform, r.Modesty, r.Total,
		})
	}
	return t, nil
}
