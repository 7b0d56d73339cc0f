package inventory

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/pioneiros/colina/core"
)

// Request statuses
const (
	StatusPending  = "Pendente"
	StatusApproved = "Aprovado"
	StatusDenied   = "Negado"
	StatusLent     = "Emprestado"
	StatusReturned = "Finalizado"
)

// holdsStock reports whether a request in this status has already taken its quantity from the stock.
func holdsStock(status string) bool {
	return status == StatusApproved || status == StatusLent || status == StatusReturned
}

// Asset is a patrimonio item.
type Asset struct {
	ID          int         `json:"id" gorm:"primaryKey"`
	Name        string      `json:"name" gorm:"column:nome;not null"`
	Quantity    int         `json:"quantity" gorm:"column:quantidade;not null;default:0"`
	Category    null.String `json:"category" gorm:"column:categoria;type:varchar(100)"`
	Description null.String `json:"description" gorm:"column:descricao;type:text"`
	AcquiredAt  time.Time   `json:"acquired_at" gorm:"column:data_aquisicao;type:date;not null"`
}

func (Asset) TableName() string { return "patrimonio" }

// Request is a solicitacao of material for a meeting.
type Request struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	SGC         string    `json:"sgc_code" gorm:"column:codigo_sgc;not null;index"`
	ItemID      int       `json:"item_id" gorm:"column:id_item;not null;index"`
	Quantity    int       `json:"quantity" gorm:"column:quantidade;not null"`
	MeetingID   int       `json:"meeting_id" gorm:"column:reuniao_id;not null;index"`
	RequestedAt time.Time `json:"requested_at" gorm:"column:data_solicitacao;not null"`
	Status      string    `json:"status" gorm:"column:status;not null"`
}

func (Request) TableName() string { return "solicitacoes" }

type RequestDetail struct {
	Request
	MemberName  string `json:"member_name" gorm:"column:member_name"`
	ItemName    string `json:"item_name" gorm:"column:item_name"`
	MeetingName string `json:"meeting_name" gorm:"column:meeting_name"`
}

type RequestFilter struct {
	MeetingID int    `query:"meeting_id"`
	Status    string `query:"status"`
	SGC       string `query:"sgc_code"`
}

type LoanItem struct {
	RequestID int    `json:"request_id"`
	ItemID    int    `json:"item_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
}

// LoanCard groups the approved requests of a member for a meeting.
type LoanCard struct {
	MeetingID  int        `json:"meeting_id"`
	SGC        string     `json:"sgc_code"`
	MemberName string     `json:"member_name"`
	Status     string     `json:"status"`
	Items      []LoanItem `json:"items"`
}

// Inputs

type NewAsset struct {
	Name        string    `json:"name" validate:"required,max=150"`
	Quantity    int       `json:"quantity" validate:"gte=1"`
	Category    string    `json:"category" validate:"max=100"`
	Description string    `json:"description"`
	AcquiredAt  time.Time `json:"acquired_at" validate:"required"`
}

func (na *NewAsset) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Category = core.CleanString(na.Category)
	na.Description = core.CleanString(na.Description)
	na.AcquiredAt = core.Day(na.AcquiredAt)
	return validate.Struct(na)
}

// UpdateAsset may bring the stock down to zero.
type UpdateAsset struct {
	Name        string    `json:"name" validate:"required,max=150"`
	Quantity    int       `json:"quantity" validate:"gte=0"`
	Category    string    `json:"category" validate:"max=100"`
	Description string    `json:"description"`
	AcquiredAt  time.Time `json:"acquired_at" validate:"required"`
}

func (ua *UpdateAsset) Validate(validate *validator.Validate) error {
	ua.Name = core.CleanString(ua.Name)
	ua.Category = core.CleanString(ua.Category)
	ua.Description = core.CleanString(ua.Description)
	ua.AcquiredAt = core.Day(ua.AcquiredAt)
	return validate.Struct(ua)
}

// NewRequest asks for quantities of several items (item id -> quantity) for a meeting.
type NewRequest struct {
	MeetingID int         `json:"meeting_id" validate:"required,gt=0"`
	Items     map[int]int `json:"items" validate:"required,min=1,dive,gte=1"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

type RequestStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=Pendente Aprovado Negado"`
}

func (ru *RequestStatusUpdate) Validate(validate *validator.Validate) error {
	ru.Status = core.CleanString(ru.Status)
	return validate.Struct(ru)
}

type LoanStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=Pendente Emprestado Finalizado"`
}

func (lu *LoanStatusUpdate) Validate(validate *validator.Validate) error {
	lu.Status = core.CleanString(lu.Status)
	return validate.Struct(lu)
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
