package gormrepos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/treasury"
)

type treasuryRepository struct {
	db *gorm.DB
}

var _ treasury.Repository = (*treasuryRepository)(nil) // interface compliance check

func NewTreasuryRepository(db *gorm.DB) *treasuryRepository {
	return &treasuryRepository{db: db}
}

func (repo treasuryRepository) Transaction(ctx context.Context, fn func(repo treasury.Repository) error) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&treasuryRepository{db: tx})
	})
}

// Dues

func (repo treasuryRepository) CreateDues(ctx context.Context, d treasury.Dues) (treasury.Dues, error) {
	if err := repo.db.WithContext(ctx).Create(&d).Error; err != nil {
		return treasury.Dues{}, wrap(err, "inserting dues")
	}
	return d, nil
}

func (repo treasuryRepository) CountYearDues(ctx context.Context, year int) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&treasury.Dues{}).Where("ano = ?", year).Count(&count).Error
	return count, wrap(err, "counting dues")
}

func (repo treasuryRepository) QueryDues(ctx context.Context, year int) ([]treasury.Dues, error) {
	q := repo.db.WithContext(ctx)
	if year > 0 {
		q = q.Where("ano = ?", year)
	}
	dues := make([]treasury.Dues, 0)
	if err := q.Order("ano DESC, mes").Find(&dues).Error; err != nil {
		return nil, wrap(err, "querying dues")
	}
	return dues, nil
}

func (repo treasuryRepository) GetDues(ctx context.Context, id int) (treasury.Dues, error) {
	var d treasury.Dues
	if err := repo.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return treasury.Dues{}, trapNotFound(err, treasury.ErrDuesNotFound, "finding dues")
	}
	return d, nil
}

func (repo treasuryRepository) UpdateDues(ctx context.Context, d treasury.Dues) (treasury.Dues, error) {
	res := repo.db.WithContext(ctx).Model(&treasury.Dues{ID: d.ID}).Update("valor", d.Value)
	if err := mustAffect(res, treasury.ErrDuesNotFound, "updating dues"); err != nil {
		return treasury.Dues{}, err
	}
	return d, nil
}

func (repo treasuryRepository) AssignDues(ctx context.Context, md []treasury.MemberDues) error {
	if len(md) == 0 {
		return nil
	}
	return wrap(repo.db.WithContext(ctx).Create(&md).Error, "assigning dues")
}

func (repo treasuryRepository) QueryMemberDues(ctx context.Context, sgc string) ([]treasury.MemberDuesDetail, error) {
	dues := make([]treasury.MemberDuesDetail, 0)
	err := repo.db.WithContext(ctx).
		Table("user_mensalidades AS um").
		Select("um.id, um.id_mensalidade, um.codigo_sgc, um.status, d.ano, d.mes, d.valor").
		Joins("JOIN mensalidades d ON d.id = um.id_mensalidade").
		Where("um.codigo_sgc = ?", sgc).
		Order("d.ano, d.mes").
		Scan(&dues).Error
	if err != nil {
		return nil, wrap(err, "querying member dues")
	}
	return dues, nil
}

func (repo treasuryRepository) GetMemberDues(ctx context.Context, duesID int, sgc string) (treasury.MemberDues, error) {
	var md treasury.MemberDues
	err := repo.db.WithContext(ctx).Where("id_mensalidade = ? AND codigo_sgc = ?", duesID, sgc).First(&md).Error
	if err != nil {
		return treasury.MemberDues{}, trapNotFound(err, treasury.ErrMemberDuesNotFound, "finding member dues")
	}
	return md, nil
}

func (repo treasuryRepository) SetMemberDuesStatus(ctx context.Context, id int, status string) error {
	res := repo.db.WithContext(ctx).Model(&treasury.MemberDues{ID: id}).Update("status", status)
	return mustAffect(res, treasury.ErrMemberDuesNotFound, "updating member dues")
}

// Events

func (repo treasuryRepository) CreateEvent(ctx context.Context, evt treasury.Event) (treasury.Event, error) {
	if err := repo.db.WithContext(ctx).Create(&evt).Error; err != nil {
		return treasury.Event{}, wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo treasuryRepository) QueryEvents(ctx context.Context) ([]treasury.Event, error) {
	events := make([]treasury.Event, 0)
	if err := repo.db.WithContext(ctx).Order("nome").Find(&events).Error; err != nil {
		return nil, wrap(err, "querying events")
	}
	return events, nil
}

func (repo treasuryRepository) GetEvent(ctx context.Context, id int) (treasury.Event, error) {
	var evt treasury.Event
	if err := repo.db.WithContext(ctx).First(&evt, id).Error; err != nil {
		return treasury.Event{}, trapNotFound(err, treasury.ErrEventNotFound, "finding event")
	}
	return evt, nil
}

func (repo treasuryRepository) UpdateEvent(ctx context.Context, evt treasury.Event) (treasury.Event, error) {
	res := repo.db.WithContext(ctx).Model(&treasury.Event{ID: evt.ID}).Select("*").Omit("id").Updates(&evt)
	if err := mustAffect(res, treasury.ErrEventNotFound, "updating event"); err != nil {
		return treasury.Event{}, err
	}
	return evt, nil
}

// DeleteEvent also detaches the event's cash entries.
func (repo treasuryRepository) DeleteEvent(ctx context.Context, id int) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmts := []struct{ sql, msg string }{
			{"DELETE FROM inscricao_eventos WHERE id_evento = ?", "deleting enrollments"},
			{"DELETE FROM user_evento_documentos WHERE id_evento = ?", "deleting document deliveries"},
			{"DELETE FROM evento_documentos WHERE id_evento = ?", "deleting event documents"},
			{"UPDATE caixa SET id_evento = NULL WHERE id_evento = ?", "detaching cash entries"},
		}
		for _, st := range stmts {
			if err := tx.Exec(st.sql, id).Error; err != nil {
				return wrap(err, st.msg)
			}
		}
		return mustAffect(tx.Delete(&treasury.Event{}, id), treasury.ErrEventNotFound, "deleting event")
	})
}

// Enrolments

func (repo treasuryRepository) CreateEnrollments(ctx context.Context, enrollments []treasury.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	return wrap(repo.db.WithContext(ctx).Create(&enrollments).Error, "inserting enrollments")
}

func (repo treasuryRepository) enrollmentDetails(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).
		Table("inscricao_eventos AS ie").
		Select(`ie.id, ie.codigo_sgc, ie.id_evento, ie.status,
			e.nome AS event_name, e.valor AS event_value, COALESCE(m.nome, ie.codigo_sgc) AS member_name`).
		Joins("JOIN evento e ON e.id = ie.id_evento").
		Joins("LEFT JOIN membros m ON m.codigo_sgc = ie.codigo_sgc")
}

func (repo treasuryRepository) QueryEnrollments(ctx context.Context, eventID int) ([]treasury.EnrollmentDetail, error) {
	enrollments := make([]treasury.EnrollmentDetail, 0)
	err := repo.enrollmentDetails(ctx).Where("ie.id_evento = ?", eventID).Order("member_name").Scan(&enrollments).Error
	if err != nil {
		return nil, wrap(err, "querying enrollments")
	}
	return enrollments, nil
}

func (repo treasuryRepository) MemberEnrollments(ctx context.Context, sgc string) ([]treasury.EnrollmentDetail, error) {
	enrollments := make([]treasury.EnrollmentDetail, 0)
	err := repo.enrollmentDetails(ctx).Where("ie.codigo_sgc = ?", sgc).Order("e.nome").Scan(&enrollments).Error
	if err != nil {
		return nil, wrap(err, "querying member enrollments")
	}
	return enrollments, nil
}

func (repo treasuryRepository) GetEnrollment(ctx context.Context, eventID int, sgc string) (treasury.Enrollment, error) {
	var enr treasury.Enrollment
	err := repo.db.WithContext(ctx).Where("id_evento = ? AND codigo_sgc = ?", eventID, sgc).First(&enr).Error
	if err != nil {
		return treasury.Enrollment{}, trapNotFound(err, treasury.ErrEnrollmentNotFound, "finding enrollment")
	}
	return enr, nil
}

func (repo treasuryRepository) SetEnrollmentStatus(ctx context.Context, id int, status string) error {
	res := repo.db.WithContext(ctx).Model(&treasury.Enrollment{ID: id}).Update("status", status)
	return mustAffect(res, treasury.ErrEnrollmentNotFound, "updating enrollment")
}

func (repo treasuryRepository) DeleteEnrollment(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&treasury.Enrollment{}, id)
	return mustAffect(res, treasury.ErrEnrollmentNotFound, "deleting enrollment")
}

// Cash ledger

func (repo treasuryRepository) CreateCashEntry(ctx context.Context, entry treasury.CashEntry) (treasury.CashEntry, error) {
	if err := repo.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return treasury.CashEntry{}, wrap(err, "inserting cash entry")
	}
	return entry, nil
}

func (repo treasuryRepository) QueryCashEntries(ctx context.Context, filter treasury.CashFilter) ([]treasury.CashEntryDetail, error) {
	q := repo.db.WithContext(ctx).
		Table("caixa AS c").
		Select("c.id, c.tipo, c.descricao, c.valor, c.data, c.id_evento, e.nome AS event_name").
		Joins("LEFT JOIN evento e ON e.id = c.id_evento")
	switch {
	case filter.Year > 0 && filter.Month > 0:
		from, to := core.MonthRange(filter.Year, filter.Month)
		q = q.Where("c.data >= ? AND c.data < ?", from, to)
	case filter.Year > 0:
		from, to := core.YearRange(filter.Year)
		q = q.Where("c.data >= ? AND c.data < ?", from, to)
	}
	if filter.EventID > 0 {
		q = q.Where("c.id_evento = ?", filter.EventID)
	}

	entries := make([]treasury.CashEntryDetail, 0)
	if err := q.Order("c.data DESC, c.id DESC").Scan(&entries).Error; err != nil {
		return nil, wrap(err, "querying cash entries")
	}
	return entries, nil
}

func (repo treasuryRepository) GetCashEntry(ctx context.Context, id int) (treasury.CashEntry, error) {
	var entry treasury.CashEntry
	if err := repo.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return treasury.CashEntry{}, trapNotFound(err, treasury.ErrCashEntryNotFound, "finding cash entry")
	}
	return entry, nil
}

func (repo treasuryRepository) DeleteCashEntry(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&treasury.CashEntry{}, id)
	return mustAffect(res, treasury.ErrCashEntryNotFound, "deleting cash entry")
}

func (repo treasuryRepository) SumCash(ctx context.Context, from, to time.Time) (float64, float64, error) {
	var sums []struct {
		Type  string  `gorm:"column:tipo"`
		Total float64 `gorm:"column:total"`
	}
	err := repo.db.WithContext(ctx).
		Model(&treasury.CashEntry{}).
		Select("tipo, COALESCE(SUM(valor), 0) AS total").
		Where("data >= ? AND data < ?", from, to).
		Group("tipo").
		Scan(&sums).Error
	if err != nil {
		return 0, 0, wrap(err, "summing cash entries")
	}
	var in, out float64
	for _, s := range sums {
		switch s.Type {
		case treasury.EntryIn:
			in = s.Total
		case treasury.EntryOut:
			out = s.Total
		}
	}
	return in, out, nil
}

// Closings

func (repo treasuryRepository) CreateClosing(ctx context.Context, c treasury.Closing) (treasury.Closing, error) {
	if err := repo.db.WithContext(ctx).Create(&c).Error; err != nil {
		return treasury.Closing{}, trapDuplicate(err, treasury.ErrAlreadyClosed, "inserting closing")
	}
	return c, nil
}

func (repo treasuryRepository) GetClosing(ctx context.Context, year, month int) (treasury.Closing, error) {
	var c treasury.Closing
	if err := repo.db.WithContext(ctx).Where("ano = ? AND mes = ?", year, month).First(&c).Error; err != nil {
		return treasury.Closing{}, trapNotFound(err, treasury.ErrClosingNotFound, "finding closing")
	}
	return c, nil
}

func (repo treasuryRepository) QueryClosings(ctx context.Context) ([]treasury.Closing, error) {
	closings := make([]treasury.Closing, 0)
	if err := repo.db.WithContext(ctx).Order("ano DESC, mes DESC").Find(&closings).Error; err != nil {
		return nil, wrap(err, "querying closings")
	}
	return closings, nil
}
