package gormrepos

import (
	"context"

	"gorm.io/gorm"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
)

var memberOrdering = map[string]string{
	"name":      "m.nome",
	"role":      "m.cargo",
	"sgc_code":  "m.codigo_sgc",
	"unit_name": "u.nome",
}

type clubRepository struct {
	db *gorm.DB
}

var _ club.Repository = (*clubRepository)(nil) // interface compliance check

func NewClubRepository(db *gorm.DB) *clubRepository {
	return &clubRepository{db: db}
}

// Units

func (repo clubRepository) CreateUnit(ctx context.Context, unit club.Unit) (club.Unit, error) {
	if err := repo.db.WithContext(ctx).Create(&unit).Error; err != nil {
		return club.Unit{}, wrap(err, "inserting unit")
	}
	return unit, nil
}

func (repo clubRepository) QueryUnits(ctx context.Context) ([]club.Unit, error) {
	units := make([]club.Unit, 0)
	if err := repo.db.WithContext(ctx).Order("nome").Find(&units).Error; err != nil {
		return nil, wrap(err, "querying units")
	}
	return units, nil
}

func (repo clubRepository) GetUnit(ctx context.Context, id int) (club.Unit, error) {
	var unit club.Unit
	if err := repo.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return club.Unit{}, trapNotFound(err, club.ErrUnitNotFound, "finding unit")
	}
	return unit, nil
}

func (repo clubRepository) UpdateUnit(ctx context.Context, unit club.Unit) (club.Unit, error) {
	res := repo.db.WithContext(ctx).Model(&club.Unit{ID: unit.ID}).Update("nome", unit.Name)
	if err := mustAffect(res, club.ErrUnitNotFound, "updating unit"); err != nil {
		return club.Unit{}, err
	}
	return unit, nil
}

func (repo clubRepository) DeleteUnit(ctx context.Context, id int) error {
	return mustAffect(repo.db.WithContext(ctx).Delete(&club.Unit{}, id), club.ErrUnitNotFound, "deleting unit")
}

func (repo clubRepository) UnitNameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	var count int64
	q := repo.db.WithContext(ctx).Model(&club.Unit{}).Where("LOWER(nome) = LOWER(?)", name)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, wrap(err, "checking unit name")
	}
	return count > 0, nil
}

func (repo clubRepository) CountUnitMembers(ctx context.Context, unitID int) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&club.Member{}).Where("id_unidade = ?", unitID).Count(&count).Error
	return count, wrap(err, "counting unit members")
}

// Members

func (repo clubRepository) CreateMember(ctx context.Context, mbr club.Member) (club.Member, error) {
	if err := repo.db.WithContext(ctx).Create(&mbr).Error; err != nil {
		return club.Member{}, wrap(err, "inserting member")
	}
	return mbr, nil
}

func (repo clubRepository) QueryMembers(ctx context.Context, filter club.MemberFilter, ordering []core.DBOrdering) ([]club.MemberDetail, error) {
	q := repo.db.WithContext(ctx).
		Table("membros AS m").
		Select("m.id, m.nome, m.id_unidade, m.codigo_sgc, m.cargo, u.nome AS unit_name").
		Joins("LEFT JOIN unidades u ON u.id = m.id_unidade")

	if filter.UnitID > 0 {
		q = q.Where("m.id_unidade = ?", filter.UnitID)
	}
	if filter.Role != "" {
		q = q.Where("m.cargo = ?", filter.Role)
	}
	if filter.Search != "" {
		val := "%" + core.CleanString(filter.Search, true /* lower */) + "%"
		q = q.Where("LOWER(m.nome) LIKE ? OR LOWER(m.codigo_sgc) LIKE ?", val, val)
	}

	members := make([]club.MemberDetail, 0)
	err := q.Order(core.OrderClause(ordering, memberOrdering, "m.nome ASC")).Scan(&members).Error
	if err != nil {
		return nil, wrap(err, "querying members")
	}
	return members, nil
}

func (repo clubRepository) GetMember(ctx context.Context, id int) (club.Member, error) {
	var mbr club.Member
	if err := repo.db.WithContext(ctx).First(&mbr, id).Error; err != nil {
		return club.Member{}, trapNotFound(err, club.ErrMemberNotFound, "finding member")
	}
	return mbr, nil
}

func (repo clubRepository) GetMemberBySGC(ctx context.Context, sgc string) (club.Member, error) {
	var mbr club.Member
	if err := repo.db.WithContext(ctx).Where("codigo_sgc = ?", sgc).First(&mbr).Error; err != nil {
		return club.Member{}, trapNotFound(err, club.ErrMemberNotFound, "finding member by sgc")
	}
	return mbr, nil
}

func (repo clubRepository) UpdateMember(ctx context.Context, mbr club.Member) (club.Member, error) {
	res := repo.db.WithContext(ctx).Model(&club.Member{ID: mbr.ID}).Select("*").Omit("id").Updates(&mbr)
	if err := mustAffect(res, club.ErrMemberNotFound, "updating member"); err != nil {
		return club.Member{}, err
	}
	return mbr, nil
}

// DeleteMember removes the member with its chamadas.
func (repo clubRepository) DeleteMember(ctx context.Context, id int) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM chamadas WHERE membro_id = ?", id).Error; err != nil {
			return wrap(err, "deleting member attendance")
		}
		return mustAffect(tx.Delete(&club.Member{}, id), club.ErrMemberNotFound, "deleting member")
	})
}

func (repo clubRepository) SGCExists(ctx context.Context, sgc string, excludeID int) (bool, error) {
	var count int64
	q := repo.db.WithContext(ctx).Model(&club.Member{}).Where("codigo_sgc = ?", sgc)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, wrap(err, "checking sgc code")
	}
	return count > 0, nil
}

// Meetings

func (repo clubRepository) CreateMeeting(ctx context.Context, mtg club.Meeting) (club.Meeting, error) {
	if err := repo.db.WithContext(ctx).Create(&mtg).Error; err != nil {
		return club.Meeting{}, wrap(err, "inserting meeting")
	}
	return mtg, nil
}

func (repo clubRepository) QueryMeetings(ctx context.Context) ([]club.Meeting, error) {
	meetings := make([]club.Meeting, 0)
	if err := repo.db.WithContext(ctx).Order("data DESC, id DESC").Find(&meetings).Error; err != nil {
		return nil, wrap(err, "querying meetings")
	}
	return meetings, nil
}

func (repo clubRepository) GetMeeting(ctx context.Context, id int) (club.Meeting, error) {
	var mtg club.Meeting
	if err := repo.db.WithContext(ctx).First(&mtg, id).Error; err != nil {
		return club.Meeting{}, trapNotFound(err, club.ErrMeetingNotFound, "finding meeting")
	}
	return mtg, nil
}

func (repo clubRepository) UpdateMeeting(ctx context.Context, mtg club.Meeting) (club.Meeting, error) {
	res := repo.db.WithContext(ctx).Model(&club.Meeting{ID: mtg.ID}).Select("*").Omit("id").Updates(&mtg)
	if err := mustAffect(res, club.ErrMeetingNotFound, "updating meeting"); err != nil {
		return club.Meeting{}, err
	}
	return mtg, nil
}

func (repo clubRepository) CountMeetingMinutes(ctx context.Context, id int) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Table("ata").Where("reuniao_id = ?", id).Count(&count).Error
	return count, wrap(err, "counting meeting minutes")
}

// DeleteMeeting removes the meeting with its chamadas and material requests.
func (repo clubRepository) DeleteMeeting(ctx context.Context, id int) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM chamadas WHERE reuniao_id = ?", id).Error; err != nil {
			return wrap(err, "deleting meeting attendance")
		}
		if err := tx.Exec("DELETE FROM solicitacoes WHERE reuniao_id = ?", id).Error; err != nil {
			return wrap(err, "deleting meeting requests")
		}
		return mustAffect(tx.Delete(&club.Meeting{}, id), club.ErrMeetingNotFound, "deleting meeting")
	})
}
