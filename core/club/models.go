package club

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
)

// Cargos
const (
	RoleCounselor         = "Conselheiro"
	RolePathfinder        = "Desbravador"
	RoleAssociateDirector = "Diretor Associado"
	RoleSecretary         = "Secretário"
	RoleInstructor        = "Instrutor"
	RoleSupport           = "Apoio"
	RoleTreasurer         = "Tesoureiro"

	// NoRoleLabel groups members without a cargo on attendance sheets.
	NoRoleLabel = "Sem Cargo"
)

var Roles = []string{
	RoleCounselor,
	RolePathfinder,
	RoleAssociateDirector,
	RoleSecretary,
	RoleInstructor,
	RoleSupport,
	RoleTreasurer,
}

func IsRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Unit struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"column:nome;not null;uniqueIndex"`
}

func (Unit) TableName() string { return "unidades" }

type Member struct {
	ID     int    `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"column:nome;not null"`
	UnitID int    `json:"unit_id" gorm:"column:id_unidade;not null;index"`
	SGC    string `json:"sgc_code" gorm:"column:codigo_sgc;not null;uniqueIndex"`
	Role   string `json:"role" gorm:"column:cargo;not null"`
}

func (Member) TableName() string { return "membros" }

// MemberDetail is a Member joined with its unit.
type MemberDetail struct {
	Member
	UnitName string `json:"unit_name" gorm:"column:unit_name"`
}

type Meeting struct {
	ID   int       `json:"id" gorm:"primaryKey"`
	Name string    `json:"name" gorm:"column:nome;not null"`
	Date time.Time `json:"date" gorm:"column:data;type:date;not null"`
}

func (Meeting) TableName() string { return "reunioes" }

type NewUnit struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (nu *NewUnit) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	return validate.Struct(nu)
}

type NewMember struct {
	Name   string `json:"name" validate:"required,max=150"`
	UnitID int    `json:"unit_id" validate:"required,gt=0"`
	SGC    string `json:"sgc_code" validate:"required,sgc"`
	Role   string `json:"role" validate:"required,cargo"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.SGC = core.CleanString(nm.SGC)
	nm.Role = core.CleanString(nm.Role)
	return validate.Struct(nm)
}

// UpdateMember replaces every field of a Member; all of them remain required.
type UpdateMember = NewMember

type MemberFilter struct {
	UnitID int    `query:"unit_id"`
	Role   string `query:"role"`
	Search string `query:"search"`
}

func (f *MemberFilter) Clean() {
	f.Role = core.CleanString(f.Role)
	f.Search = core.CleanString(f.Search)
}

type NewMeeting struct {
	Name string    `json:"name" validate:"required,max=150"`
	Date time.Time `json:"date" validate:"required"`
}

func (nm *NewMeeting) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Date = core.Day(nm.Date)
	return validate.Struct(nm)
}
