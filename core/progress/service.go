package progress

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("catalog item")
	ErrCodeExists    = errors.New("an item with this code already exists")
	ErrSpecialtyCode = errors.New("code must look like XX-000")
	ErrUnknownCode   = errors.New("unknown code")
	ErrInvalidKind   = errors.New("unknown catalog")
	ErrNoHeader      = errors.New("the sheet must have the columns 'codigo' and 'nome'")
)

type (
	Repository interface {
		CreateItem(ctx context.Context, kind string, item Item) (Item, error)
		QueryItems(ctx context.Context, kind string) ([]Item, error)
		GetItem(ctx context.Context, kind string, id int) (Item, error)
		// ItemsByCode returns the catalog items among codes, keyed by code.
		ItemsByCode(ctx context.Context, kind string, codes []string) (map[string]Item, error)
		RenameItem(ctx context.Context, kind string, id int, name string) (Item, error)
		// DeleteItem removes the item and every member link to it.
		DeleteItem(ctx context.Context, kind string, id int) error
		// ImportItems inserts create and renames update (matched by code) in one transaction.
		ImportItems(ctx context.Context, kind string, create, update []Item) error

		MemberItems(ctx context.Context, kind, sgc string) ([]Item, error)
		// SetMemberItems applies a Diff to a member's links in one transaction.
		SetMemberItems(ctx context.Context, kind, sgc string, diff Diff) error
	}

	// RowReader reads the first sheet of a spreadsheet as rows of cells.
	RowReader interface {
		ReadRows(r io.Reader) ([][]string, error)
	}

	MemberFinder interface {
		GetMemberBySGC(ctx context.Context, sgc string) (club.Member, error)
	}
)

type Service struct {
	repo     Repository
	members  MemberFinder
	rows     RowReader
	validate *validator.Validate
}

func NewService(repo Repository, members MemberFinder, rows RowReader, validate *validator.Validate) *Service {
	return &Service{repo: repo, members: members, rows: rows, validate: validate}
}

func checkKind(kind string) error {
	if kind != KindClass && kind != KindSpecialty {
		return core.NewFieldError("kind", ErrInvalidKind)
	}
	return nil
}

// Catalog

func (svc *Service) Create(ctx context.Context, kind string, ni NewItem) (Item, error) {
	if err := checkKind(kind); err != nil {
		return Item{}, err
	}
	if err := ni.Validate(svc.validate, kind); err != nil {
		return Item{}, err
	}
	existing, err := svc.repo.ItemsByCode(ctx, kind, []string{ni.Code})
	if err != nil {
		return Item{}, err
	}
	if _, ok := existing[ni.Code]; ok {
		return Item{}, core.NewFieldError("code", ErrCodeExists)
	}
	return svc.repo.CreateItem(ctx, kind, Item{Code: ni.Code, Name: ni.Name})
}

func (svc *Service) Query(ctx context.Context, kind string) ([]Item, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	items, err := svc.repo.QueryItems(ctx, kind)
	if err != nil {
		return nil, err
	}
	SortItems(items)
	return items, nil
}

func (svc *Service) Rename(ctx context.Context, kind string, id int, r Rename) (Item, error) {
	if err := checkKind(kind); err != nil {
		return Item{}, err
	}
	if _, err := svc.repo.GetItem(ctx, kind, id); err != nil {
		return Item{}, err
	}
	if err := r.Validate(svc.validate); err != nil {
		return Item{}, err
	}
	return svc.repo.RenameItem(ctx, kind, id, r.Name)
}

func (svc *Service) Delete(ctx context.Context, kind string, id int) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	if _, err := svc.repo.GetItem(ctx, kind, id); err != nil {
		return err
	}
	return svc.repo.DeleteItem(ctx, kind, id)
}

// Member links

func (svc *Service) MemberItems(ctx context.Context, kind, sgc string) ([]Item, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if _, err := svc.members.GetMemberBySGC(ctx, sgc); err != nil {
		return nil, err
	}
	items, err := svc.repo.MemberItems(ctx, kind, sgc)
	if err != nil {
		return nil, err
	}
	SortItems(items)
	return items, nil
}

// SetMemberItems makes codes the member's exact set of classes or specialties.
func (svc *Service) SetMemberItems(ctx context.Context, kind, sgc string, data SetCodes) (Diff, error) {
	if err := checkKind(kind); err != nil {
		return Diff{}, err
	}
	if _, err := svc.members.GetMemberBySGC(ctx, sgc); err != nil {
		return Diff{}, err
	}

	wanted := make([]string, 0, len(data.Codes))
	for _, c := range data.Codes {
		if c = core.CleanString(c); c != "" {
			wanted = append(wanted, c)
		}
	}
	known, err := svc.repo.ItemsByCode(ctx, kind, wanted)
	if err != nil {
		return Diff{}, err
	}
	for _, c := range wanted {
		if _, ok := known[c]; !ok {
			return Diff{}, core.NewValidationError(ErrUnknownCode, core.FieldError{Field: "codes", Error: ErrUnknownCode.Error() + ": " + c})
		}
	}

	current, err := svc.repo.MemberItems(ctx, kind, sgc)
	if err != nil {
		return Diff{}, err
	}
	currentCodes := make([]string, 0, len(current))
	for _, it := range current {
		currentCodes = append(currentCodes, it.Code)
	}

	diff := diffCodes(currentCodes, wanted)
	if len(diff.Added) == 0 && len(diff.Removed) == 0 {
		return diff, nil
	}
	if err := svc.repo.SetMemberItems(ctx, kind, sgc, diff); err != nil {
		return Diff{}, err
	}
	return diff, nil
}

// Bulk import

// PreviewImport reads a spreadsheet with the header columns "codigo" and "nome" and
// classifies each row as new, duplicate (code already in the catalog or earlier in the sheet) or invalid.
func (svc *Service) PreviewImport(ctx context.Context, kind string, r io.Reader) (ImportPreview, error) {
	if err := checkKind(kind); err != nil {
		return ImportPreview{}, err
	}
	rows, err := svc.rows.ReadRows(r)
	if err != nil {
		return ImportPreview{}, core.NewValidationError(err)
	}
	parsed, err := parseImportRows(rows)
	if err != nil {
		return ImportPreview{}, err
	}

	preview := ImportPreview{New: []ImportRow{}, Duplicate: []ImportRow{}, Invalid: []ImportRow{}}
	codes := make([]string, 0, len(parsed))
	for _, row := range parsed {
		codes = append(codes, row.Code)
	}
	existing, err := svc.repo.ItemsByCode(ctx, kind, codes)
	if err != nil {
		return ImportPreview{}, err
	}

	seen := make(map[string]bool, len(parsed))
	for _, row := range parsed {
		ni := NewItem{Code: row.Code, Name: row.Name}
		if err := ni.Validate(svc.validate, kind); err != nil {
			row.Error = err.Error()
			preview.Invalid = append(preview.Invalid, row)
			continue
		}
		row.Code, row.Name = ni.Code, ni.Name
		if _, ok := existing[row.Code]; ok || seen[row.Code] {
			preview.Duplicate = append(preview.Duplicate, row)
		} else {
			preview.New = append(preview.New, row)
		}
		seen[row.Code] = true
	}
	return preview, nil
}

// Import inserts the new rows of a spreadsheet and, with updateExisting, renames the duplicates.
func (svc *Service) Import(ctx context.Context, kind string, r io.Reader, updateExisting bool) (ImportResult, error) {
	preview, err := svc.PreviewImport(ctx, kind, r)
	if err != nil {
		return ImportResult{}, err
	}

	create := make([]Item, 0, len(preview.New))
	for _, row := range preview.New {
		create = append(create, Item{Code: row.Code, Name: row.Name})
	}
	var update []Item
	if updateExisting {
		for _, row := range preview.Duplicate {
			update = append(update, Item{Code: row.Code, Name: row.Name})
		}
	}
	if len(create) > 0 || len(update) > 0 {
		if err := svc.repo.ImportItems(ctx, kind, create, update); err != nil {
			return ImportResult{}, err
		}
	}
	return ImportResult{
		Created: len(create),
		Updated: len(update),
		Skipped: len(preview.Duplicate) - len(update),
		Invalid: len(preview.Invalid),
	}, nil
}

// parseImportRows locates the "codigo" & "nome" columns in the header and returns the non-blank lines.
func parseImportRows(rows [][]string) ([]ImportRow, error) {
	if len(rows) == 0 {
		return nil, core.NewValidationError(ErrNoHeader)
	}
	codeCol, nameCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(core.CleanString(h)) {
		case "codigo", "código":
			codeCol = i
		case "nome":
			nameCol = i
		}
	}
	if codeCol < 0 || nameCol < 0 {
		return nil, core.NewValidationError(ErrNoHeader)
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return core.CleanString(row[i])
		}
		return ""
	}
	out := make([]ImportRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		code, name := cell(row, codeCol), cell(row, nameCol)
		if code == "" && name == "" {
			continue
		}
		out = append(out, ImportRow{Line: i + 2, Code: code, Name: name})
	}
	return out, nil
}
