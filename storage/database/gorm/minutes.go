package gormrepos

import (
	"context"

	"gorm.io/gorm"

	"github.com/pioneiros/colina/core/minutes"
)

type minutesRepository struct {
	db *gorm.DB
}

var _ minutes.Repository = (*minutesRepository)(nil) // interface compliance check

func NewMinutesRepository(db *gorm.DB) *minutesRepository {
	return &minutesRepository{db: db}
}

// Atas

func (repo minutesRepository) CreateMinute(ctx context.Context, m minutes.Minute) (minutes.Minute, error) {
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return minutes.Minute{}, wrap(err, "inserting minute")
	}
	return m, nil
}

func (repo minutesRepository) QueryMinutes(ctx context.Context) ([]minutes.MinuteDetail, error) {
	mins := make([]minutes.MinuteDetail, 0)
	err := repo.db.WithContext(ctx).
		Table("ata AS a").
		Select("a.id, a.reuniao_id, a.titulo, a.descricao, r.nome AS meeting_name, r.data AS meeting_date").
		Joins("JOIN reunioes r ON r.id = a.reuniao_id").
		Order("r.data DESC, a.id DESC").
		Scan(&mins).Error
	if err != nil {
		return nil, wrap(err, "querying minutes")
	}
	return mins, nil
}

func (repo minutesRepository) GetMinute(ctx context.Context, id int) (minutes.Minute, error) {
	var m minutes.Minute
	if err := repo.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return minutes.Minute{}, trapNotFound(err, minutes.ErrMinuteNotFound, "finding minute")
	}
	return m, nil
}

func (repo minutesRepository) UpdateMinute(ctx context.Context, m minutes.Minute) (minutes.Minute, error) {
	res := repo.db.WithContext(ctx).Model(&minutes.Minute{ID: m.ID}).Select("*").Omit("id").Updates(&m)
	if err := mustAffect(res, minutes.ErrMinuteNotFound, "updating minute"); err != nil {
		return minutes.Minute{}, err
	}
	return m, nil
}

func (repo minutesRepository) DeleteMinute(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&minutes.Minute{}, id)
	return mustAffect(res, minutes.ErrMinuteNotFound, "deleting minute")
}

func (repo minutesRepository) CountMinuteActs(ctx context.Context, id int) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&minutes.Act{}).Where("ata_id = ?", id).Count(&count).Error
	return count, wrap(err, "counting minute acts")
}

// Atos

func (repo minutesRepository) CreateAct(ctx context.Context, a minutes.Act) (minutes.Act, error) {
	if err := repo.db.WithContext(ctx).Create(&a).Error; err != nil {
		return minutes.Act{}, wrap(err, "inserting act")
	}
	return a, nil
}

func (repo minutesRepository) QueryActs(ctx context.Context, filter minutes.ActFilter) ([]minutes.ActDetail, error) {
	q := repo.db.WithContext(ctx).
		Table("ato AS t").
		Select(`t.id, t.ata_id, t.titulo, t.descricao, t.unidade_id,
			a.titulo AS minute_title, COALESCE(u.nome, '') AS unit_name`).
		Joins("JOIN ata a ON a.id = t.ata_id").
		Joins("LEFT JOIN unidades u ON u.id = t.unidade_id")
	if filter.MinuteID > 0 {
		q = q.Where("t.ata_id = ?", filter.MinuteID)
	}

	acts := make([]minutes.ActDetail, 0)
	if err := q.Order("t.ata_id DESC, t.id").Scan(&acts).Error; err != nil {
		return nil, wrap(err, "querying acts")
	}
	return acts, nil
}

func (repo minutesRepository) GetAct(ctx context.Context, id int) (minutes.Act, error) {
	var a minutes.Act
	if err := repo.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return minutes.Act{}, trapNotFound(err, minutes.ErrActNotFound, "finding act")
	}
	return a, nil
}

func (repo minutesRepository) UpdateAct(ctx context.Context, a minutes.Act) (minutes.Act, error) {
	res := repo.db.WithContext(ctx).Model(&minutes.Act{ID: a.ID}).Select("*").Omit("id").Updates(&a)
	if err := mustAffect(res, minutes.ErrActNotFound, "updating act"); err != nil {
		return minutes.Act{}, err
	}
	return a, nil
}

func (repo minutesRepository) DeleteAct(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&minutes.Act{}, id)
	return mustAffect(res, minutes.ErrActNotFound, "deleting act")
}
