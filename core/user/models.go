package user

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/pioneiros/colina/core"
)

// Permissions
const (
	PermAdmin     = "admin"
	PermSpecialty = "especialidade"
	PermAssociate = "associado"
	PermTeam      = "equipe"
	PermCouncil   = "conselho"
)

// Tabs
const (
	TabMeetings       = "Reuniões"
	TabMembers        = "Membros"
	TabAttendance     = "Chamada"
	TabUnits          = "Cadastro de unidade"
	TabAttendanceView = "Visualizar chamada"
	TabScores         = "Pontuação"
	TabUsers          = "Usuário do sistema"
	TabSpecialties    = "Especialidades"
	TabClasses        = "Classes"
	TabTreasury       = "Tesouraria"
	TabAssets         = "Patrimonio"
	TabMaterials      = "Materiais"
	TabMinutes        = "Atas e Atos"
	TabDocuments      = "Documentos"
	TabReports        = "Relatorios"
)

var (
	AllPermissions = []string{PermAdmin, PermSpecialty, PermAssociate, PermTeam, PermCouncil}

	permissionTabs = map[string][]string{
		PermAdmin: {
			TabMeetings, TabMembers, TabAttendance, TabUnits, TabAttendanceView, TabScores, TabUsers,
			TabSpecialties, TabClasses, TabTreasury,
		},
		PermSpecialty: {
			TabMeetings, TabMembers, TabAttendance, TabAttendanceView, TabScores, TabUsers, TabSpecialties,
			TabClasses, TabTreasury, TabAssets, TabMaterials, TabMinutes, TabDocuments, TabReports,
		},
		PermAssociate: {TabMeetings, TabMembers, TabAttendance, TabAttendanceView, TabScores, TabUsers},
		PermTeam:      {TabAttendance, TabAttendanceView, TabScores},
		PermCouncil:   {TabScores, TabSpecialties, TabClasses},
	}

	// progressManagers may edit the class & specialty catalogs and any member's links.
	progressManagers = map[string]bool{PermAdmin: true, PermAssociate: true, PermSpecialty: true}

	Permissions = []Permission{
		{Name: "Equipe", Value: PermTeam},
		{Name: "Conselho", Value: PermCouncil},
		{Name: "Associado", Value: PermAssociate},
		{Name: "Especialidade", Value: PermSpecialty},
		{Name: "Admin", Value: PermAdmin},
	}
)

type Permission struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Tabs returns the tab names granted to perm, in display order.
func Tabs(perm string) []string {
	tabs := permissionTabs[perm]
	out := make([]string, len(tabs))
	copy(out, tabs)
	return out
}

func HasTab(perm, tab string) bool {
	for _, t := range permissionTabs[perm] {
		if t == tab {
			return true
		}
	}
	return false
}

func CanManageProgress(perm string) bool {
	return progressManagers[perm]
}

func IsPermission(perm string) bool {
	_, ok := permissionTabs[perm]
	return ok
}

type User struct {
	ID           int       `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	Permission   string    `json:"permission"`
	SGC          string    `json:"sgc_code"`
	PasswordHash []byte    `json:"-"`
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	if u.HasLegacyPassword() {
		sum := sha256.Sum256([]byte(pwd))
		if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), u.PasswordHash) == 1 {
			return nil
		}
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// HasLegacyPassword reports whether the stored hash is an unsalted hex SHA-256 digest
// imported from the previous system. Those are replaced by bcrypt on the next login.
func (u *User) HasLegacyPassword() bool {
	if len(u.PasswordHash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(string(u.PasswordHash))
	return err == nil
}

func (u *User) Tabs() []string {
	return Tabs(u.Permission)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Login           string `json:"login" validate:"required,min=3,max=50,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	SGC             string `json:"sgc_code" validate:"required,sgc"`
	Permission      string `json:"permission" validate:"required,permission"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Login = core.CleanString(nu.Login, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.SGC = core.CleanString(nu.SGC)
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// A blank Password keeps the current one.
type UpdateUser struct {
	Login           string `json:"login" validate:"omitempty,min=3,max=50,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Permission      string `json:"permission" validate:"omitempty,permission"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	if login := core.CleanString(uu.Login, true /* lower */); login != "" {
		uu.Login = login
	} else {
		uu.Login = origUsr.Login
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if perm := core.CleanString(uu.Permission); perm != "" {
		uu.Permission = perm
	} else {
		uu.Permission = origUsr.Permission
	}
	return validate.Struct(uu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID    int
	Login string
	SGC   string
	Email string
}
