package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pioneiros/colina/core/treasury"
)

type treasuryReports struct {
	db *sqlx.DB
}

var _ treasury.ReportRepository = (*treasuryReports)(nil) // interface compliance check

func NewTreasuryReports(db *sqlx.DB) *treasuryReports {
	return &treasuryReports{db: db}
}

// Totals read the monthly closings, so a month only counts once it is closed.

func (repo treasuryReports) YearTotals(ctx context.Context) ([]treasury.YearTotal, error) {
	q := &query{base: `
		SELECT ano AS year, COALESCE(SUM(entrada), 0) AS total_in, COALESCE(SUM(saida), 0) AS total_out
		FROM fechamento`}
	totals := make([]treasury.YearTotal, 0)
	if err := selectAll(ctx, repo.db, &totals, q, "GROUP BY ano ORDER BY ano DESC", "summing closings per year"); err != nil {
		return nil, err
	}
	return totals, nil
}

func (repo treasuryReports) MonthTotals(ctx context.Context) ([]treasury.MonthTotal, error) {
	q := &query{base: "SELECT ano AS year, mes AS month, entrada AS total_in, saida AS total_out FROM fechamento"}
	totals := make([]treasury.MonthTotal, 0)
	if err := selectAll(ctx, repo.db, &totals, q, "ORDER BY ano DESC, mes DESC", "querying closings"); err != nil {
		return nil, err
	}
	return totals, nil
}

func (repo treasuryReports) OverallTotals(ctx context.Context) (treasury.Totals, error) {
	var t treasury.Totals
	err := repo.db.GetContext(ctx, &t,
		"SELECT COALESCE(SUM(entrada), 0) AS total_in, COALESCE(SUM(saida), 0) AS total_out FROM fechamento")
	return t, wrap(err, "summing closings")
}

func (repo treasuryReports) EventsWithCash(ctx context.Context) ([]treasury.Event, error) {
	q := &query{base: `
		SELECT DISTINCT e.id AS id, e.nome AS name, e.valor AS value
		FROM evento e
		JOIN caixa c ON c.id_evento = e.id`}
	events := make([]treasury.Event, 0)
	if err := selectAll(ctx, repo.db, &events, q, "ORDER BY name", "querying events with cash"); err != nil {
		return nil, err
	}
	return events, nil
}

// DuesIndicators counts member dues per status, for one month when the filter names one.
func (repo treasuryReports) DuesIndicators(ctx context.Context, filter treasury.IndicatorFilter) ([]treasury.DuesIndicator, error) {
	q := &query{base: `
		SELECT um.status AS status, COUNT(*) AS dues, COUNT(DISTINCT um.codigo_sgc) AS members
		FROM user_mensalidades um
		JOIN mensalidades d ON d.id = um.id_mensalidade`}
	if filter.Year > 0 && filter.Month > 0 {
		q.where("d.ano = ? AND d.mes = ?", filter.Year, filter.Month)
	}

	indicators := make([]treasury.DuesIndicator, 0)
	if err := selectAll(ctx, repo.db, &indicators, q, "GROUP BY um.status ORDER BY um.status", "counting dues"); err != nil {
		return nil, err
	}
	return indicators, nil
}

// Debtors sums the pending dues and enrolments of every member.
func (repo treasuryReports) Debtors(ctx context.Context) ([]treasury.Debtor, error) {
	q := &query{
		base: `
		SELECT m.codigo_sgc AS sgc, m.nome AS name,
			COALESCE((
				SELECT SUM(d.valor) FROM user_mensalidades um
				JOIN mensalidades d ON d.id = um.id_mensalidade
				WHERE um.codigo_sgc = m.codigo_sgc AND um.status = ?
			), 0) AS dues,
			COALESCE((
				SELECT SUM(e.valor) FROM inscricao_eventos ie
				JOIN evento e ON e.id = ie.id_evento
				WHERE ie.codigo_sgc = m.codigo_sgc AND ie.status = ?
			), 0) AS events
		FROM membros m`,
		args: []interface{}{treasury.StatusPending, treasury.StatusPending},
	}

	debtors := make([]treasury.Debtor, 0)
	if err := selectAll(ctx, repo.db, &debtors, q, "ORDER BY m.nome", "querying debtors"); err != nil {
		return nil, err
	}
	return debtors, nil
}
