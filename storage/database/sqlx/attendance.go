package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/attendance"
)

type statsRepository struct {
	db *sqlx.DB
}

var _ attendance.StatsRepository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *sqlx.DB) *statsRepository {
	return &statsRepository{db: db}
}

// MeetingScores sums the scores of each unit at each meeting, oldest meeting first.
func (repo statsRepository) MeetingScores(ctx context.Context, filter attendance.StatsFilter) ([]attendance.MeetingScore, error) {
	q := &query{base: `
		SELECT u.id AS unit_id, u.nome AS unit_name,
			r.id AS meeting_id, r.nome AS meeting_name, r.data AS meeting_date,
			COALESCE(SUM(c.presenca), 0) AS presence,
			COALESCE(SUM(c.pontualidade), 0) AS punctuality,
			COALESCE(SUM(c.uniforme), 0) AS uniform,
			COALESCE(SUM(c.modestia), 0) AS modesty
		FROM chamadas c
		JOIN reunioes r ON r.id = c.reuniao_id
		JOIN unidades u ON u.id = c.id_unidade`}
	if filter.UnitID > 0 {
		q.where("c.id_unidade = ?", filter.UnitID)
	}
	if filter.Year > 0 {
		from, to := core.YearRange(filter.Year)
		q.where("r.data >= ? AND r.data < ?", from, to)
	}

	scores := make([]attendance.MeetingScore, 0)
	err := selectAll(ctx, repo.db, &scores, q,
		"GROUP BY u.id, u.nome, r.id, r.nome, r.data ORDER BY r.data, r.id, u.nome", "querying meeting scores")
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// MemberScores sums each member's scores over every meeting. Members never scored get zeros.
func (repo statsRepository) MemberScores(ctx context.Context, unitID int) ([]attendance.MemberScore, error) {
	q := &query{base: `
		SELECT m.id AS member_id, m.nome AS name, m.cargo AS role,
			COALESCE(SUM(c.presenca), 0) AS presence,
			COALESCE(SUM(c.pontualidade), 0) AS punctuality,
			COALESCE(SUM(c.uniforme), 0) AS uniform,
			COALESCE(SUM(c.modestia), 0) AS modesty
		FROM membros m
		LEFT JOIN chamadas c ON c.membro_id = m.id`}
	q.where("m.id_unidade = ?", unitID)

	scores := make([]attendance.MemberScore, 0)
	err := selectAll(ctx, repo.db, &scores, q, "GROUP BY m.id, m.nome, m.cargo ORDER BY m.nome", "querying member scores")
	if err != nil {
		return nil, err
	}
	return scores, nil
}
