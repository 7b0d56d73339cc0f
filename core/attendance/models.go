package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Periods of the score breakdowns.
const (
	PeriodMeeting = "reuniao"
	PeriodMonth   = "mes"
	PeriodYear    = "ano"
)

func IsPeriod(p string) bool {
	return p == PeriodMeeting || p == PeriodMonth || p == PeriodYear
}

// Scores are the four criteria of a chamada.
type Scores struct {
	Presence    int `json:"presence" gorm:"column:presenca;not null;default:0"`
	Punctuality int `json:"punctuality" gorm:"column:pontualidade;not null;default:0"`
	Uniform     int `json:"uniform" gorm:"column:uniforme;not null;default:0"`
	Modesty     int `json:"modesty" gorm:"column:modestia;not null;default:0"`
}

func (s Scores) Total() int {
	return s.Presence + s.Punctuality + s.Uniform + s.Modesty
}

func (s Scores) add(o Scores) Scores {
	return Scores{
		Presence:    s.Presence + o.Presence,
		Punctuality: s.Punctuality + o.Punctuality,
		Uniform:     s.Uniform + o.Uniform,
		Modesty:     s.Modesty + o.Modesty,
	}
}

// Attendance is one chamada: a member's scores for a meeting.
type Attendance struct {
	ID        int `json:"id" gorm:"primaryKey"`
	MeetingID int `json:"meeting_id" gorm:"column:reuniao_id;not null;uniqueIndex:idx_chamadas_reuniao_membro"`
	UnitID    int `json:"unit_id" gorm:"column:id_unidade;not null;index"`
	MemberID  int `json:"member_id" gorm:"column:membro_id;not null;uniqueIndex:idx_chamadas_reuniao_membro"`
	Scores
}

func (Attendance) TableName() string { return "chamadas" }

// Record is an Attendance joined with its meeting, unit and member.
type Record struct {
	Attendance
	MeetingName string    `json:"meeting_name" gorm:"column:meeting_name"`
	MeetingDate time.Time `json:"meeting_date" gorm:"column:meeting_date"`
	UnitName    string    `json:"unit_name" gorm:"column:unit_name"`
	MemberName  string    `json:"member_name" gorm:"column:member_name"`
	Total       int       `json:"total" gorm:"-"`
}

type Filter struct {
	MeetingID int `query:"meeting_id"`
	UnitID    int `query:"unit_id"`
}

// SheetEntry is a member line of an attendance sheet, pre-filled with saved scores.
type SheetEntry struct {
	MemberID int    `json:"member_id"`
	Name     string `json:"name"`
	Saved    bool   `json:"saved"`
	Scores
}

type SheetGroup struct {
	Role    string       `json:"role"`
	Members []SheetEntry `json:"members"`
}

type Sheet struct {
	MeetingID int          `json:"meeting_id"`
	UnitID    int          `json:"unit_id"`
	Groups    []SheetGroup `json:"groups"`
}

// Entry is a member's scores as submitted on a sheet.
// Presence is all or nothing; the other criteria step by 5.
type Entry struct {
	MemberID    int `json:"member_id" validate:"required,gt=0"`
	Presence    int `json:"presence" validate:"oneof=0 10"`
	Punctuality int `json:"punctuality" validate:"oneof=0 5 10"`
	Uniform     int `json:"uniform" validate:"oneof=0 5 10"`
	Modesty     int `json:"modesty" validate:"oneof=0 5 10"`
}

type Register struct {
	Entries []Entry `json:"entries" validate:"required,min=1,dive"`
}

func (r *Register) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// MeetingScore is the sum of a unit's scores at one meeting.
type MeetingScore struct {
	UnitID      int       `json:"unit_id" db:"unit_id"`
	UnitName    string    `json:"unit_name" db:"unit_name"`
	MeetingID   int       `json:"meeting_id" db:"meeting_id"`
	MeetingName string    `json:"meeting_name" db:"meeting_name"`
	MeetingDate time.Time `json:"meeting_date" db:"meeting_date"`
	Presence    int       `json:"presence" db:"presence"`
	Punctuality int       `json:"punctuality" db:"punctuality"`
	Uniform     int       `json:"uniform" db:"uniform"`
	Modesty     int       `json:"modesty" db:"modesty"`
}

func (ms MeetingScore) scores() Scores {
	return Scores{Presence: ms.Presence, Punctuality: ms.Punctuality, Uniform: ms.Uniform, Modesty: ms.Modesty}
}

// MemberScore is the sum of a member's scores over every meeting.
type MemberScore struct {
	MemberID    int    `json:"member_id" db:"member_id"`
	Name        string `json:"name" db:"name"`
	Role        string `json:"role" db:"role"`
	Presence    int    `json:"presence" db:"presence"`
	Punctuality int    `json:"punctuality" db:"punctuality"`
	Uniform     int    `json:"uniform" db:"uniform"`
	Modesty     int    `json:"modesty" db:"modesty"`
	Total       int    `json:"total" db:"-"`
}

type StatsFilter struct {
	UnitID int `query:"unit_id"`
	Year   int `query:"year"`
}

// RankingRow is a unit's line on the ranking ("Total Geral" is Total).
type RankingRow struct {
	UnitID   int    `json:"unit_id"`
	UnitName string `json:"unit_name"`
	Scores
	Total int `json:"total"`
}

// PeriodRow is the sum of a unit's scores over one period.
type PeriodRow struct {
	UnitID   int    `json:"unit_id"`
	UnitName string `json:"unit_name"`
	Period   string `json:"period"`
	Scores
	Total int `json:"total"`
}
