package gormrepos

import (
	"context"

	"gorm.io/gorm"

	"github.com/pioneiros/colina/core/inventory"
)

type inventoryRepository struct {
	db *gorm.DB
}

var _ inventory.Repository = (*inventoryRepository)(nil) // interface compliance check

func NewInventoryRepository(db *gorm.DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

func (repo inventoryRepository) Transaction(ctx context.Context, fn func(repo inventory.Repository) error) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&inventoryRepository{db: tx})
	})
}

// Assets

func (repo inventoryRepository) CreateAsset(ctx context.Context, a inventory.Asset) (inventory.Asset, error) {
	if err := repo.db.WithContext(ctx).Create(&a).Error; err != nil {
		return inventory.Asset{}, wrap(err, "inserting asset")
	}
	return a, nil
}

func (repo inventoryRepository) QueryAssets(ctx context.Context) ([]inventory.Asset, error) {
	assets := make([]inventory.Asset, 0)
	if err := repo.db.WithContext(ctx).Order("nome").Find(&assets).Error; err != nil {
		return nil, wrap(err, "querying assets")
	}
	return assets, nil
}

func (repo inventoryRepository) GetAsset(ctx context.Context, id int) (inventory.Asset, error) {
	var a inventory.Asset
	if err := repo.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return inventory.Asset{}, trapNotFound(err, inventory.ErrAssetNotFound, "finding asset")
	}
	return a, nil
}

func (repo inventoryRepository) UpdateAsset(ctx context.Context, a inventory.Asset) (inventory.Asset, error) {
	res := repo.db.WithContext(ctx).Model(&inventory.Asset{ID: a.ID}).Select("*").Omit("id").Updates(&a)
	if err := mustAffect(res, inventory.ErrAssetNotFound, "updating asset"); err != nil {
		return inventory.Asset{}, err
	}
	return a, nil
}

func (repo inventoryRepository) DeleteAsset(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&inventory.Asset{}, id)
	return mustAffect(res, inventory.ErrAssetNotFound, "deleting asset")
}

func (repo inventoryRepository) CountAssetRequests(ctx context.Context, id int) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&inventory.Request{}).Where("id_item = ?", id).Count(&count).Error
	return count, wrap(err, "counting asset requests")
}

// TakeStock is a conditional decrement so concurrent approvals never drive the stock negative.
func (repo inventoryRepository) TakeStock(ctx context.Context, id, qty int) (bool, error) {
	res := repo.db.WithContext(ctx).
		Model(&inventory.Asset{}).
		Where("id = ? AND quantidade >= ?", id, qty).
		Update("quantidade", gorm.Expr("quantidade - ?", qty))
	if res.Error != nil {
		return false, wrap(res.Error, "taking stock")
	}
	return res.RowsAffected > 0, nil
}

func (repo inventoryRepository) ReturnStock(ctx context.Context, id, qty int) error {
	res := repo.db.WithContext(ctx).
		Model(&inventory.Asset{}).
		Where("id = ?", id).
		Update("quantidade", gorm.Expr("quantidade + ?", qty))
	return mustAffect(res, inventory.ErrAssetNotFound, "returning stock")
}

// Requests

func (repo inventoryRepository) CreateRequests(ctx context.Context, reqs []inventory.Request) ([]inventory.Request, error) {
	if len(reqs) == 0 {
		return reqs, nil
	}
	if err := repo.db.WithContext(ctx).Create(&reqs).Error; err != nil {
		return nil, wrap(err, "inserting requests")
	}
	return reqs, nil
}

func (repo inventoryRepository) QueryRequests(ctx context.Context, filter inventory.RequestFilter) ([]inventory.RequestDetail, error) {
	q := repo.db.WithContext(ctx).
		Table("solicitacoes AS s").
		Select(`s.id, s.codigo_sgc, s.id_item, s.quantidade, s.reuniao_id, s.data_solicitacao, s.status,
			COALESCE(m.nome, s.codigo_sgc) AS member_name, p.nome AS item_name, r.nome AS meeting_name`).
		Joins("JOIN patrimonio p ON p.id = s.id_item").
		Joins("JOIN reunioes r ON r.id = s.reuniao_id").
		Joins("LEFT JOIN membros m ON m.codigo_sgc = s.codigo_sgc")
	if filter.MeetingID > 0 {
		q = q.Where("s.reuniao_id = ?", filter.MeetingID)
	}
	if filter.Status != "" {
		q = q.Where("s.status = ?", filter.Status)
	}
	if filter.SGC != "" {
		q = q.Where("s.codigo_sgc = ?", filter.SGC)
	}

	reqs := make([]inventory.RequestDetail, 0)
	if err := q.Order("s.data_solicitacao DESC, s.id DESC").Scan(&reqs).Error; err != nil {
		return nil, wrap(err, "querying requests")
	}
	return reqs, nil
}

func (repo inventoryRepository) GetRequest(ctx context.Context, id int) (inventory.Request, error) {
	var req inventory.Request
	if err := repo.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return inventory.Request{}, trapNotFound(err, inventory.ErrRequestNotFound, "finding request")
	}
	return req, nil
}

func (repo inventoryRepository) SetRequestStatus(ctx context.Context, ids []int, status string) error {
	if len(ids) == 0 {
		return nil
	}
	res := repo.db.WithContext(ctx).Model(&inventory.Request{}).Where("id IN ?", ids).Update("status", status)
	return mustAffect(res, inventory.ErrRequestNotFound, "updating request status")
}

func (repo inventoryRepository) DeleteRequest(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&inventory.Request{}, id)
	return mustAffect(res, inventory.ErrRequestNotFound, "deleting request")
}
