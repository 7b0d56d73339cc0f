package gormrepos

import (
	"context"

	"gorm.io/gorm"

	"github.com/pioneiros/colina/core/documents"
)

type documentsRepository struct {
	db *gorm.DB
}

var _ documents.Repository = (*documentsRepository)(nil) // interface compliance check

func NewDocumentsRepository(db *gorm.DB) *documentsRepository {
	return &documentsRepository{db: db}
}

func (repo documentsRepository) CreateRequirement(ctx context.Context, r documents.Requirement) (documents.Requirement, error) {
	if err := repo.db.WithContext(ctx).Create(&r).Error; err != nil {
		return documents.Requirement{}, wrap(err, "inserting document")
	}
	return r, nil
}

func (repo documentsRepository) QueryRequirements(ctx context.Context, eventID int) ([]documents.Requirement, error) {
	reqs := make([]documents.Requirement, 0)
	err := repo.db.WithContext(ctx).Where("id_evento = ?", eventID).Order("nome_documento").Find(&reqs).Error
	if err != nil {
		return nil, wrap(err, "querying documents")
	}
	return reqs, nil
}

func (repo documentsRepository) GetRequirement(ctx context.Context, id int) (documents.Requirement, error) {
	var r documents.Requirement
	if err := repo.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return documents.Requirement{}, trapNotFound(err, documents.ErrRequirementNotFound, "finding document")
	}
	return r, nil
}

func (repo documentsRepository) DeleteRequirement(ctx context.Context, id int) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id_documento = ?", id).Delete(&documents.Delivery{}).Error; err != nil {
			return wrap(err, "deleting deliveries")
		}
		res := tx.Delete(&documents.Requirement{}, id)
		return mustAffect(res, documents.ErrRequirementNotFound, "deleting document")
	})
}

func (repo documentsRepository) CreateDelivery(ctx context.Context, d documents.Delivery) (documents.Delivery, error) {
	if err := repo.db.WithContext(ctx).Create(&d).Error; err != nil {
		return documents.Delivery{}, wrap(err, "inserting delivery")
	}
	return d, nil
}

// QueryDeliveries lists the deliveries of an event, of every member when sgc is empty.
func (repo documentsRepository) QueryDeliveries(ctx context.Context, eventID int, sgc string) ([]documents.DeliveryDetail, error) {
	q := repo.db.WithContext(ctx).
		Table("user_evento_documentos AS d").
		Select(`d.id, d.codigo_sgc, d.id_evento, d.id_documento, d.data_entrega,
			COALESCE(m.nome, d.codigo_sgc) AS member_name, r.nome_documento AS document_name`).
		Joins("JOIN evento_documentos r ON r.id = d.id_documento").
		Joins("LEFT JOIN membros m ON m.codigo_sgc = d.codigo_sgc").
		Where("d.id_evento = ?", eventID)
	if sgc != "" {
		q = q.Where("d.codigo_sgc = ?", sgc)
	}

	deliveries := make([]documents.DeliveryDetail, 0)
	if err := q.Order("member_name, document_name").Scan(&deliveries).Error; err != nil {
		return nil, wrap(err, "querying deliveries")
	}
	return deliveries, nil
}

func (repo documentsRepository) GetDelivery(ctx context.Context, id int) (documents.Delivery, error) {
	var d documents.Delivery
	if err := repo.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return documents.Delivery{}, trapNotFound(err, documents.ErrDeliveryNotFound, "finding delivery")
	}
	return d, nil
}

func (repo documentsRepository) DeliveryExists(ctx context.Context, sgc string, documentID int) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&documents.Delivery{}).
		Where("codigo_sgc = ? AND id_documento = ?", sgc, documentID).
		Count(&count).Error
	if err != nil {
		return false, wrap(err, "checking delivery")
	}
	return count > 0, nil
}

func (repo documentsRepository) DeleteDelivery(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&documents.Delivery{}, id)
	return mustAffect(res, documents.ErrDeliveryNotFound, "deleting delivery")
}
