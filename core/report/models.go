package report

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// Report names
const (
	CashFlow       = "fluxo-caixa"
	Assets         = "patrimonio"
	MinutesBook    = "livro-atas"
	DuesSummary    = "mensalidades"
	UnitClasses    = "unidades-classes"
	UnitSpecialty  = "unidades-especialidades"
	Attendance     = "presenca"
	dateLayout     = "02/01/2006"
	listSeparator  = ", "
	defaultPeriod  = "mes"
	attendanceName = "Presença por período"
)

// Names lists the reports in menu order.
var Names = []string{CashFlow, Assets, MinutesBook, DuesSummary, UnitClasses, UnitSpecialty, Attendance}

// Table is a report ready to be shown or exported.
type Table struct {
	Name    string          `json:"name"`
	Title   string          `json:"title"`
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// FileName is the export file name derived from the title.
func (t Table) FileName() string {
	name := strings.ToLower(strings.Join(strings.Fields(t.Title), "_"))
	return name + ".xlsx"
}

type Params struct {
	Year   int    `query:"year"`
	Period string `query:"period"`
}

// Rows returned by the extraction queries.

type CashFlowRow struct {
	Date        time.Time   `db:"date"`
	Type        string      `db:"type"`
	Description string      `db:"description"`
	Value       float64     `db:"value"`
	EventName   null.String `db:"event_name"`
}

type AssetRow struct {
	Name        string      `db:"name"`
	Quantity    int         `db:"quantity"`
	Category    null.String `db:"category"`
	Description null.String `db:"description"`
	AcquiredAt  time.Time   `db:"acquired_at"`
}

type MinutesRow struct {
	MeetingName       string      `db:"meeting_name"`
	MeetingDate       time.Time   `db:"meeting_date"`
	MinuteTitle       string      `db:"minute_title"`
	MinuteDescription string      `db:"minute_description"`
	ActTitle          null.String `db:"act_title"`
	ActDescription    null.String `db:"act_description"`
	UnitName          null.String `db:"unit_name"`
}

type DuesSummaryRow struct {
	Name    string `db:"name"`
	SGC     string `db:"sgc"`
	Paid    int    `db:"paid"`
	Pending int    `db:"pending"`
	Exempt  int    `db:"exempt"`
}

// UnitItemRow is a member of a unit with one of its classes or specialties (Code is null when it has none).
type UnitItemRow struct {
	UnitName   string      `db:"unit_name"`
	MemberName string      `db:"member_name"`
	SGC        string      `db:"sgc"`
	Role       string      `db:"role"`
	Code       null.String `db:"code"`
	ItemName   null.String `db:"item_name"`
}
