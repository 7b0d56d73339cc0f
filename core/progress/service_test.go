package progress_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/report"
	spreadsheetsvc "github.com/pioneiros/colina/services/spreadsheet"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	"github.com/pioneiros/colina/storage/database/testutil"
)

func newService(t *testing.T) (*progress.Service, club.Member) {
	db := testutil.PrepareDB(t)
	validate, _ := testutil.Validator()
	clubSvc := club.NewService(gormrepos.NewClubRepository(db), validate)
	unit := testutil.CreateUnit(t, db, "Aguia")
	mbr := testutil.CreateMember(t, db, unit.ID, "Ana", "1001", club.RolePathfinder)
	return progress.NewService(gormrepos.NewProgressRepository(db), clubSvc, spreadsheetsvc.NewExcel(), validate), mbr
}

func codes(items []progress.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Code
	}
	return out
}

func TestService_Create(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, progress.KindSpecialty, progress.NewItem{Code: "ad-001", Name: "Nós"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		kind    string
		item    progress.NewItem
		wantErr error
		wantAny bool
	}{
		{name: "unknown kind", kind: "medalha", item: progress.NewItem{Code: "X", Name: "X"}, wantErr: progress.ErrInvalidKind},
		{name: "missing name", kind: progress.KindClass, item: progress.NewItem{Code: "AMIGO"}, wantAny: true},
		{name: "bad specialty code", kind: progress.KindSpecialty, item: progress.NewItem{Code: "AD1", Name: "X"}, wantErr: progress.ErrSpecialtyCode},
		{name: "duplicate code", kind: progress.KindSpecialty, item: progress.NewItem{Code: "AD-001", Name: "X"}, wantErr: progress.ErrCodeExists},
		{name: "class codes are free form", kind: progress.KindClass, item: progress.NewItem{Code: "Amigo", Name: "Amigo"}},
		{name: "same code in the other catalog", kind: progress.KindClass, item: progress.NewItem{Code: "AD-001", Name: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.kind, tt.item)
			switch {
			case tt.wantAny:
				assert.Error(t, err)
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "Create() error = %v, wantErr %v", err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_CatalogAndMemberItems(t *testing.T) {
	svc, mbr := newService(t)
	ctx := context.Background()

	var ids []int
	for _, c := range []string{"HM-002", "AD-010", "AD-002"} {
		it, err := svc.Create(ctx, progress.KindSpecialty, progress.NewItem{Code: c, Name: "Esp " + c})
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}

	items, err := svc.Query(ctx, progress.KindSpecialty)
	require.NoError(t, err)
	assert.Equal(t, []string{"AD-002", "AD-010", "HM-002"}, codes(items))

	renamed, err := svc.Rename(ctx, progress.KindSpecialty, ids[0], progress.Rename{Name: " Arte "})
	require.NoError(t, err)
	assert.Equal(t, "Arte", renamed.Name)

	_, err = svc.Rename(ctx, progress.KindSpecialty, 999, progress.Rename{Name: "X"})
	assert.Equal(t, progress.ErrNotFound, err)

	_, err = svc.SetMemberItems(ctx, progress.KindSpecialty, "9999", progress.SetCodes{Codes: []string{"AD-002"}})
	assert.Equal(t, club.ErrMemberNotFound, err)

	_, err = svc.SetMemberItems(ctx, progress.KindSpecialty, mbr.SGC, progress.SetCodes{Codes: []string{"ZZ-999"}})
	assert.True(t, errors.Is(err, progress.ErrUnknownCode))

	diff, err := svc.SetMemberItems(ctx, progress.KindSpecialty, mbr.SGC, progress.SetCodes{Codes: []string{"AD-002", " HM-002 ", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"AD-002", "HM-002"}, diff.Added)

	diff, err = svc.SetMemberItems(ctx, progress.KindSpecialty, mbr.SGC, progress.SetCodes{Codes: []string{"AD-010", "HM-002"}})
	require.NoError(t, err)
	assert.Equal(t, progress.Diff{Added: []string{"AD-010"}, Removed: []string{"AD-002"}}, diff)

	mine, err := svc.MemberItems(ctx, progress.KindSpecialty, mbr.SGC)
	require.NoError(t, err)
	assert.Equal(t, []string{"AD-010", "HM-002"}, codes(mine))

	// deleting a catalog item drops the member links
	require.NoError(t, svc.Delete(ctx, progress.KindSpecialty, ids[1]))
	mine, err = svc.MemberItems(ctx, progress.KindSpecialty, mbr.SGC)
	require.NoError(t, err)
	assert.Equal(t, []string{"HM-002"}, codes(mine))

	classes, err := svc.MemberItems(ctx, progress.KindClass, mbr.SGC)
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Reader {
	var buf bytes.Buffer
	table := report.Table{Columns: []string{"codigo", "nome"}, Rows: rows}
	require.NoError(t, spreadsheetsvc.NewExcel().Write(&buf, table))
	return bytes.NewReader(buf.Bytes())
}

func TestService_Import(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, progress.KindSpecialty, progress.NewItem{Code: "AD-001", Name: "Antigo"})
	require.NoError(t, err)

	rows := [][]interface{}{
		{"AD-001", "Nós e amarras"},
		{"ad-002", "Acampamento"},
		{"AD-002", "Acampamento II"},
		{"XX", "Inválida"},
		{"HM-003", ""},
	}

	preview, err := svc.PreviewImport(ctx, progress.KindSpecialty, workbook(t, rows...))
	require.NoError(t, err)
	assert.Len(t, preview.New, 1)
	assert.Equal(t, "AD-002", preview.New[0].Code)
	assert.Len(t, preview.Duplicate, 2)
	assert.Len(t, preview.Invalid, 2)
	assert.Equal(t, 5, preview.Invalid[0].Line)

	res, err := svc.Import(ctx, progress.KindSpecialty, workbook(t, rows...), false)
	require.NoError(t, err)
	assert.Equal(t, progress.ImportResult{Created: 1, Skipped: 2, Invalid: 2}, res)

	items, err := svc.Query(ctx, progress.KindSpecialty)
	require.NoError(t, err)
	assert.Equal(t, []string{"AD-001", "AD-002"}, codes(items))
	assert.Equal(t, "Antigo", items[0].Name)

	res, err = svc.Import(ctx, progress.KindSpecialty, workbook(t, []interface{}{"AD-001", "Nós e amarras"}), true)
	require.NoError(t, err)
	assert.Equal(t, progress.ImportResult{Updated: 1}, res)

	items, err = svc.Query(ctx, progress.KindSpecialty)
	require.NoError(t, err)
	assert.Equal(t, "Nós e amarras", items[0].Name)

	_, err = svc.PreviewImport(ctx, progress.KindSpecialty, bytes.NewReader([]byte("not a workbook")))
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
