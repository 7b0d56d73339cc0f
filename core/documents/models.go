package documents

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/pioneiros/colina/core"
)

// Requirement is a document members must hand in for an event.
type Requirement struct {
	ID      int    `json:"id" gorm:"primaryKey"`
	EventID int    `json:"event_id" gorm:"column:id_evento;not null;index"`
	Name    string `json:"name" gorm:"column:nome_documento;not null"`
}

func (Requirement) TableName() string { return "evento_documentos" }

// Delivery records that a member handed in a required document.
type Delivery struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	SGC         string    `json:"sgc_code" gorm:"column:codigo_sgc;not null;uniqueIndex:idx_user_evento_documentos_pair"`
	EventID     int       `json:"event_id" gorm:"column:id_evento;not null;index"`
	DocumentID  int       `json:"document_id" gorm:"column:id_documento;not null;uniqueIndex:idx_user_evento_documentos_pair"`
	DeliveredAt time.Time `json:"delivered_at" gorm:"column:data_entrega;not null"`
}

func (Delivery) TableName() string { return "user_evento_documentos" }

type DeliveryDetail struct {
	Delivery
	MemberName   string `json:"member_name" gorm:"column:member_name"`
	DocumentName string `json:"document_name" gorm:"column:document_name"`
}

// ChecklistItem tells whether a member delivered one of the event documents.
type ChecklistItem struct {
	DocumentID  int       `json:"document_id"`
	Name        string    `json:"name"`
	Delivered   bool      `json:"delivered"`
	DeliveredAt null.Time `json:"delivered_at"`
}

type NewRequirement struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (nr *NewRequirement) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	return validate.Struct(nr)
}

// NewDelivery defaults DeliveredAt to now when omitted.
type NewDelivery struct {
	SGC         string    `json:"sgc_code" validate:"required,sgc"`
	DocumentID  int       `json:"document_id" validate:"required,gt=0"`
	DeliveredAt time.Time `json:"delivered_at"`
}

func (nd *NewDelivery) Validate(validate *validator.Validate) error {
	nd.SGC = core.CleanString(nd.SGC)
	return validate.Struct(nd)
}
