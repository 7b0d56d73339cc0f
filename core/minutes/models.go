package minutes

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
)

// Minute is an ata recorded for a meeting.
type Minute struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	MeetingID   int    `json:"meeting_id" gorm:"column:reuniao_id;not null;index"`
	Title       string `json:"title" gorm:"column:titulo;not null"`
	Description string `json:"description" gorm:"column:descricao;type:text;not null"`
}

func (Minute) TableName() string { return "ata" }

type MinuteDetail struct {
	Minute
	MeetingName string    `json:"meeting_name" gorm:"column:meeting_name"`
	MeetingDate time.Time `json:"meeting_date" gorm:"column:meeting_date"`
}

// Act is an ato of a unit attached to an ata.
type Act struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	MinuteID    int    `json:"minute_id" gorm:"column:ata_id;not null;index"`
	Title       string `json:"title" gorm:"column:titulo;not null"`
	Description string `json:"description" gorm:"column:descricao;type:text;not null"`
	UnitID      int    `json:"unit_id" gorm:"column:unidade_id;not null;index"`
}

func (Act) TableName() string { return "ato" }

type ActDetail struct {
	Act
	MinuteTitle string `json:"minute_title" gorm:"column:minute_title"`
	UnitName    string `json:"unit_name" gorm:"column:unit_name"`
}

type NewMinute struct {
	MeetingID   int    `json:"meeting_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

func (nm *NewMinute) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	return validate.Struct(nm)
}

type NewAct struct {
	MinuteID    int    `json:"minute_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

func (na *NewAct) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

type ActFilter struct {
	MinuteID int `query:"minute_id"`
}
