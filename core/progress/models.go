package progress

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
)

var specialtyCodeRegex = regexp.MustCompile(`^([A-Z]{2})-(\d{3})$`)

// Catalog kinds
const (
	KindClass     = "classe"
	KindSpecialty = "especialidade"
)

// Item is an entry of the class or specialty catalog.
type Item struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Code string `json:"code" gorm:"column:codigo"`
	Name string `json:"name" gorm:"column:nome"`
}

// Class and Specialty describe the catalog tables.
type Class struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Code string `json:"code" gorm:"column:codigo;not null;uniqueIndex"`
	Name string `json:"name" gorm:"column:nome;not null"`
}

func (Class) TableName() string { return "classe" }

type Specialty struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Code string `json:"code" gorm:"column:codigo;not null;uniqueIndex"`
	Name string `json:"name" gorm:"column:nome;not null"`
}

func (Specialty) TableName() string { return "especialidades" }

type MemberClass struct {
	ID        int    `json:"id" gorm:"primaryKey"`
	SGC       string `json:"sgc_code" gorm:"column:codigo_sgc;not null;uniqueIndex:idx_user_classes_pair"`
	ClassCode string `json:"class_code" gorm:"column:codigo_classe;not null;uniqueIndex:idx_user_classes_pair"`
}

func (MemberClass) TableName() string { return "user_classes" }

type MemberSpecialty struct {
	ID            int    `json:"id" gorm:"primaryKey"`
	SGC           string `json:"sgc_code" gorm:"column:codigo_sgc;not null;uniqueIndex:idx_user_especialidades_pair"`
	SpecialtyCode string `json:"specialty_code" gorm:"column:codigo_especialidade;not null;uniqueIndex:idx_user_especialidades_pair"`
}

func (MemberSpecialty) TableName() string { return "user_especialidades" }

type NewItem struct {
	Code string `json:"code" validate:"required,max=20"`
	Name string `json:"name" validate:"required,max=150"`
}

func (ci *NewItem) Validate(validate *validator.Validate, kind string) error {
	ci.Code = core.CleanString(ci.Code)
	ci.Name = core.CleanString(ci.Name)
	if kind == KindSpecialty {
		ci.Code = strings.ToUpper(ci.Code)
	}
	if err := validate.Struct(ci); err != nil {
		return err
	}
	if kind == KindSpecialty && !IsSpecialtyCode(ci.Code) {
		return core.NewFieldError("code", ErrSpecialtyCode)
	}
	return nil
}

type Rename struct {
	Name string `json:"name" validate:"required,max=150"`
}

func (r *Rename) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	return validate.Struct(r)
}

// SetCodes replaces a member's whole set of classes or specialties.
type SetCodes struct {
	Codes []string `json:"codes"`
}

// Diff is what SetCodes added and removed.
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

func IsSpecialtyCode(code string) bool {
	return specialtyCodeRegex.MatchString(code)
}

// specialtyKey splits "AB-012" into ("AB", 12). Invalid codes sort last.
func specialtyKey(code string) (string, int) {
	m := specialtyCodeRegex.FindStringSubmatch(code)
	if m == nil {
		return "\uffff" + code, 0
	}
	n, _ := strconv.Atoi(m[2])
	return m[1], n
}

// SortItems orders items by code. Specialty codes sort by prefix then number.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, ni := specialtyKey(items[i].Code)
		pj, nj := specialtyKey(items[j].Code)
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})
}

// diffCodes computes which codes to add to and remove from current to reach wanted.
func diffCodes(current, wanted []string) Diff {
	have := make(map[string]bool, len(current))
	for _, c := range current {
		have[c] = true
	}
	want := make(map[string]bool, len(wanted))
	diff := Diff{Added: []string{}, Removed: []string{}}
	for _, c := range wanted {
		if want[c] {
			continue
		}
		want[c] = true
		if !have[c] {
			diff.Added = append(diff.Added, c)
		}
	}
	for _, c := range current {
		if !want[c] {
			diff.Removed = append(diff.Removed, c)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	return diff
}

// ImportRow is a line of a specialty spreadsheet.
type ImportRow struct {
	Line  int    `json:"line"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// ImportPreview classifies the rows of a spreadsheet against the catalog.
type ImportPreview struct {
	New       []ImportRow `json:"new"`
	Duplicate []ImportRow `json:"duplicate"`
	Invalid   []ImportRow `json:"invalid"`
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Invalid int `json:"invalid"`
}
