package treasury

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/pioneiros/colina/core"
)

// Statuses of dues and enrolments
const (
	StatusPending   = "Pendente"
	StatusPaid      = "Pago"
	StatusExempt    = "Isento"
	StatusCancelled = "Cancelado"
)

// Cash entry types
const (
	EntryIn  = "Entrada"
	EntryOut = "Saída"
)

var (
	DuesStatuses       = []string{StatusPending, StatusPaid, StatusExempt}
	EnrollmentStatuses = []string{StatusPending, StatusPaid, StatusCancelled}
)

type Event struct {
	ID    int     `json:"id" gorm:"primaryKey"`
	Name  string  `json:"name" gorm:"column:nome;not null"`
	Value float64 `json:"value" gorm:"column:valor;type:numeric(10,2);not null"`
}

func (Event) TableName() string { return "evento" }

// Dues is the mensalidade of one month.
type Dues struct {
	ID    int     `json:"id" gorm:"primaryKey"`
	Value float64 `json:"value" gorm:"column:valor;type:numeric(10,2);not null"`
	Year  int     `json:"year" gorm:"column:ano;not null;uniqueIndex:idx_mensalidades_ano_mes"`
	Month int     `json:"month" gorm:"column:mes;not null;uniqueIndex:idx_mensalidades_ano_mes"`
}

func (Dues) TableName() string { return "mensalidades" }

// MemberDues assigns a mensalidade to a member.
type MemberDues struct {
	ID     int    `json:"id" gorm:"primaryKey"`
	DuesID int    `json:"dues_id" gorm:"column:id_mensalidade;not null;uniqueIndex:idx_user_mensalidades_pair"`
	SGC    string `json:"sgc_code" gorm:"column:codigo_sgc;not null;uniqueIndex:idx_user_mensalidades_pair"`
	Status string `json:"status" gorm:"column:status;not null"`
}

func (MemberDues) TableName() string { return "user_mensalidades" }

// MemberDuesDetail is a MemberDues joined with its mensalidade.
type MemberDuesDetail struct {
	MemberDues
	Year  int     `json:"year" gorm:"column:ano"`
	Month int     `json:"month" gorm:"column:mes"`
	Value float64 `json:"value" gorm:"column:valor"`
}

type Enrollment struct {
	ID      int    `json:"id" gorm:"primaryKey"`
	SGC     string `json:"sgc_code" gorm:"column:codigo_sgc;not null;uniqueIndex:idx_inscricao_eventos_pair"`
	EventID int    `json:"event_id" gorm:"column:id_evento;not null;uniqueIndex:idx_inscricao_eventos_pair"`
	Status  string `json:"status" gorm:"column:status;not null"`
}

func (Enrollment) TableName() string { return "inscricao_eventos" }

// EnrollmentDetail is an Enrollment joined with its event and member.
type EnrollmentDetail struct {
	Enrollment
	EventName  string  `json:"event_name" gorm:"column:event_name"`
	EventValue float64 `json:"event_value" gorm:"column:event_value"`
	MemberName string  `json:"member_name" gorm:"column:member_name"`
}

// CashEntry is a line of the caixa.
type CashEntry struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"column:tipo;not null"`
	Description string    `json:"description" gorm:"column:descricao;not null"`
	Value       float64   `json:"value" gorm:"column:valor;type:numeric(10,2);not null"`
	Date        time.Time `json:"date" gorm:"column:data;type:date;not null;index"`
	EventID     null.Int  `json:"event_id" gorm:"column:id_evento;type:integer;index"`
}

func (CashEntry) TableName() string { return "caixa" }

type CashEntryDetail struct {
	CashEntry
	EventName null.String `json:"event_name" gorm:"column:event_name"`
}

// Closing is the fechamento of a month.
type Closing struct {
	ID    int     `json:"id" gorm:"primaryKey"`
	In    float64 `json:"in" gorm:"column:entrada;type:numeric(10,2);not null"`
	Out   float64 `json:"out" gorm:"column:saida;type:numeric(10,2);not null"`
	Year  int     `json:"year" gorm:"column:ano;not null;uniqueIndex:idx_fechamento_ano_mes"`
	Month int     `json:"month" gorm:"column:mes;not null;uniqueIndex:idx_fechamento_ano_mes"`
}

func (Closing) TableName() string { return "fechamento" }

func (c Closing) Balance() float64 {
	return core.RoundMoney(c.In - c.Out)
}

// Inputs

type YearlyDues struct {
	Year  int     `json:"year" validate:"required,gte=2000,lte=2100"`
	Value float64 `json:"value" validate:"required,gt=0,money"`
}

func (yd *YearlyDues) Validate(validate *validator.Validate) error {
	return validate.Struct(yd)
}

type EditDues struct {
	Value float64 `json:"value" validate:"required,gt=0,money"`
}

func (ed *EditDues) Validate(validate *validator.Validate) error {
	return validate.Struct(ed)
}

// DuesStatusUpdate maps mensalidade ids to their new status for one member.
type DuesStatusUpdate struct {
	Statuses map[int]string `json:"statuses" validate:"required,min=1,dive,oneof=Pendente Pago Isento"`
}

func (du *DuesStatusUpdate) Validate(validate *validator.Validate) error {
	return validate.Struct(du)
}

type NewEvent struct {
	Name  string  `json:"name" validate:"required,max=150"`
	Value float64 `json:"value" validate:"money"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	return validate.Struct(ne)
}

type Enroll struct {
	SGCs []string `json:"sgc_codes" validate:"required,min=1,dive,required,sgc"`
}

func (e *Enroll) Validate(validate *validator.Validate) error {
	for i := range e.SGCs {
		e.SGCs[i] = core.CleanString(e.SGCs[i])
	}
	return validate.Struct(e)
}

type EnrollmentStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=Pendente Pago Cancelado"`
}

func (eu *EnrollmentStatusUpdate) Validate(validate *validator.Validate) error {
	eu.Status = core.CleanString(eu.Status)
	return validate.Struct(eu)
}

type NewCashEntry struct {
	Type        string    `json:"type" validate:"required,oneof=Entrada Saída"`
	Description string    `json:"description" validate:"required,max=255"`
	Value       float64   `json:"value" validate:"required,gt=0,money"`
	Date        time.Time `json:"date" validate:"required"`
	EventID     int       `json:"event_id" validate:"omitempty,gt=0"`
}

func (nc *NewCashEntry) Validate(validate *validator.Validate) error {
	nc.Type = core.CleanString(nc.Type)
	nc.Description = core.CleanString(nc.Description)
	nc.Date = core.Day(nc.Date)
	return validate.Struct(nc)
}

type CashFilter struct {
	Year    int `query:"year"`
	Month   int `query:"month"`
	EventID int `query:"event_id"`
}

type ClosePeriod struct {
	Year  int `json:"year" query:"year" validate:"required,gte=2000,lte=2100"`
	Month int `json:"month" query:"month" validate:"required,gte=1,lte=12"`
}

func (cp *ClosePeriod) Validate(validate *validator.Validate) error {
	return validate.Struct(cp)
}

// Debts

type DebtItem struct {
	ID          int     `json:"id"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
}

// Debts are the pending dues & events of a member.
type Debts struct {
	SGC         string     `json:"sgc_code"`
	Dues        []DebtItem `json:"dues"`
	DuesTotal   float64    `json:"dues_total"`
	Events      []DebtItem `json:"events"`
	EventsTotal float64    `json:"events_total"`
	Total       float64    `json:"total"`
}

type Debtor struct {
	SGC        string  `json:"sgc_code" db:"sgc"`
	Name       string  `json:"name" db:"name"`
	DuesDebt   float64 `json:"dues" db:"dues"`
	EventsDebt float64 `json:"events" db:"events"`
	Total      float64 `json:"total" db:"-"`
}

// Reports

type YearTotal struct {
	Year    int     `json:"year" db:"year"`
	In      float64 `json:"in" db:"total_in"`
	Out     float64 `json:"out" db:"total_out"`
	Balance float64 `json:"balance" db:"-"`
}

type MonthTotal struct {
	Year    int     `json:"year" db:"year"`
	Month   int     `json:"month" db:"month"`
	Label   string  `json:"label" db:"-"`
	In      float64 `json:"in" db:"total_in"`
	Out     float64 `json:"out" db:"total_out"`
	Balance float64 `json:"balance" db:"-"`
}

func monthLabel(year, month int) string {
	return fmt.Sprintf("%d/%d", month, year)
}

type EventCash struct {
	Event   Event             `json:"event"`
	Entries []CashEntryDetail `json:"entries"`
	In      float64           `json:"in"`
	Out     float64           `json:"out"`
	Balance float64           `json:"balance"`
}

type Totals struct {
	In      float64 `json:"in" db:"total_in"`
	Out     float64 `json:"out" db:"total_out"`
	Balance float64 `json:"balance" db:"-"`
}

// DuesIndicator counts dues and distinct members holding a status.
type DuesIndicator struct {
	Status  string `json:"status" db:"status"`
	Dues    int    `json:"dues" db:"dues"`
	Members int    `json:"members" db:"members"`
}

type IndicatorFilter struct {
	Year  int `query:"year"`
	Month int `query:"month"`
}
