package gormrepos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pioneiros/colina/core/attendance"
	"github.com/pioneiros/colina/core/club"
)

type attendanceRepository struct {
	db *gorm.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *gorm.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) UnitMembers(ctx context.Context, unitID int) ([]club.Member, error) {
	members := make([]club.Member, 0)
	err := repo.db.WithContext(ctx).Where("id_unidade = ?", unitID).Order("cargo, nome").Find(&members).Error
	if err != nil {
		return nil, wrap(err, "querying unit members")
	}
	return members, nil
}

func (repo attendanceRepository) QuerySheet(ctx context.Context, meetingID, unitID int) ([]attendance.Attendance, error) {
	records := make([]attendance.Attendance, 0)
	err := repo.db.WithContext(ctx).
		Where("reuniao_id = ? AND id_unidade = ?", meetingID, unitID).
		Find(&records).Error
	if err != nil {
		return nil, wrap(err, "querying attendance sheet")
	}
	return records, nil
}

// SaveSheet upserts on (reuniao_id, membro_id).
func (repo attendanceRepository) SaveSheet(ctx context.Context, records []attendance.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reuniao_id"}, {Name: "membro_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"id_unidade", "presenca", "pontualidade", "uniforme", "modestia"}),
		}).Create(&records).Error
		return wrap(err, "saving attendance sheet")
	})
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	q := repo.db.WithContext(ctx).
		Table("chamadas AS c").
		Select(`c.id, c.reuniao_id, c.id_unidade, c.membro_id, c.presenca, c.pontualidade, c.uniforme, c.modestia,
			r.nome AS meeting_name, r.data AS meeting_date, u.nome AS unit_name, m.nome AS member_name`).
		Joins("JOIN reunioes r ON r.id = c.reuniao_id").
		Joins("JOIN unidades u ON u.id = c.id_unidade").
		Joins("JOIN membros m ON m.id = c.membro_id")
	if filter.MeetingID > 0 {
		q = q.Where("c.reuniao_id = ?", filter.MeetingID)
	}
	if filter.UnitID > 0 {
		q = q.Where("c.id_unidade = ?", filter.UnitID)
	}

	records := make([]attendance.Record, 0)
	if err := q.Order("r.data DESC, u.nome, m.nome").Scan(&records).Error; err != nil {
		return nil, wrap(err, "querying attendance")
	}
	return records, nil
}
