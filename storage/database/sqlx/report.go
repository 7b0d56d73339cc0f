package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/report"
	"github.com/pioneiros/colina/core/treasury"
)

// catalogs maps a catalog kind to its item table, link table and link code column.
var catalogs = map[string][3]string{
	progress.KindClass:     {"classe", "user_classes", "codigo_classe"},
	progress.KindSpecialty: {"especialidades", "user_especialidades", "codigo_especialidade"},
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo reportRepository) CashFlow(ctx context.Context) ([]report.CashFlowRow, error) {
	q := &query{base: `
		SELECT c.data AS date, c.tipo AS type, c.descricao AS description, c.valor AS value, e.nome AS event_name
		FROM caixa c
		LEFT JOIN evento e ON e.id = c.id_evento`}
	rows := make([]report.CashFlowRow, 0)
	if err := selectAll(ctx, repo.db, &rows, q, "ORDER BY c.data, c.id", "querying cash flow"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo reportRepository) Assets(ctx context.Context) ([]report.AssetRow, error) {
	q := &query{base: `
		SELECT nome AS name, quantidade AS quantity, categoria AS category,
			descricao AS description, data_aquisicao AS acquired_at
		FROM patrimonio`}
	rows := make([]report.AssetRow, 0)
	if err := selectAll(ctx, repo.db, &rows, q, "ORDER BY nome", "querying assets"); err != nil {
		return nil, err
	}
	return rows, nil
}

// MinutesBook lists every ata with its atos, an ata without atos on a single row.
func (repo reportRepository) MinutesBook(ctx context.Context) ([]report.MinutesRow, error) {
	q := &query{base: `
		SELECT r.nome AS meeting_name, r.data AS meeting_date,
			a.titulo AS minute_title, a.descricao AS minute_description,
			t.titulo AS act_title, t.descricao AS act_description, u.nome AS unit_name
		FROM ata a
		JOIN reunioes r ON r.id = a.reuniao_id
		LEFT JOIN ato t ON t.ata_id = a.id
		LEFT JOIN unidades u ON u.id = t.unidade_id`}
	rows := make([]report.MinutesRow, 0)
	if err := selectAll(ctx, repo.db, &rows, q, "ORDER BY r.data, a.id, t.id", "querying minutes book"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo reportRepository) DuesSummary(ctx context.Context, year int) ([]report.DuesSummaryRow, error) {
	q := &query{
		base: `
		SELECT m.nome AS name, m.codigo_sgc AS sgc,
			SUM(CASE WHEN um.status = ? THEN 1 ELSE 0 END) AS paid,
			SUM(CASE WHEN um.status = ? THEN 1 ELSE 0 END) AS pending,
			SUM(CASE WHEN um.status = ? THEN 1 ELSE 0 END) AS exempt
		FROM membros m
		JOIN user_mensalidades um ON um.codigo_sgc = m.codigo_sgc
		JOIN mensalidades d ON d.id = um.id_mensalidade`,
		args: []interface{}{treasury.StatusPaid, treasury.StatusPending, treasury.StatusExempt},
	}
	if year > 0 {
		q.where("d.ano = ?", year)
	}
	rows := make([]report.DuesSummaryRow, 0)
	err := selectAll(ctx, repo.db, &rows, q, "GROUP BY m.nome, m.codigo_sgc ORDER BY m.nome", "querying dues summary")
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo reportRepository) UnitItems(ctx context.Context, kind string) ([]report.UnitItemRow, error) {
	t, ok := catalogs[kind]
	if !ok {
		return nil, progress.ErrInvalidKind
	}
	items, links, code := t[0], t[1], t[2]
	q := &query{base: fmt.Sprintf(`
		SELECT u.nome AS unit_name, m.nome AS member_name, m.codigo_sgc AS sgc, m.cargo AS role,
			l.%[3]s AS code, i.nome AS item_name
		FROM membros m
		JOIN unidades u ON u.id = m.id_unidade
		LEFT JOIN %[2]s l ON l.codigo_sgc = m.codigo_sgc
		LEFT JOIN %[1]s i ON i.codigo = l.%[3]s`, items, links, code)}
	rows := make([]report.UnitItemRow, 0)
	err := selectAll(ctx, repo.db, &rows, q, "ORDER BY u.nome, m.nome, m.codigo_sgc, code", "querying unit items")
	if err != nil {
		return nil, err
	}
	return rows, nil
}
