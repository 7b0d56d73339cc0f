package gormrepos

import (
	"context"

	"gorm.io/gorm"

	"github.com/pioneiros/colina/core/progress"
)

// catalogTables maps a catalog kind to its table, link table and link code column.
var catalogTables = map[string]struct{ items, links, code string }{
	progress.KindClass:     {items: "classe", links: "user_classes", code: "codigo_classe"},
	progress.KindSpecialty: {items: "especialidades", links: "user_especialidades", code: "codigo_especialidade"},
}

type progressRepository struct {
	db *gorm.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *gorm.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo progressRepository) items(ctx context.Context, kind string) *gorm.DB {
	return repo.db.WithContext(ctx).Table(catalogTables[kind].items)
}

func (repo progressRepository) CreateItem(ctx context.Context, kind string, item progress.Item) (progress.Item, error) {
	item.ID = 0
	if err := repo.items(ctx, kind).Create(&item).Error; err != nil {
		return progress.Item{}, wrap(err, "inserting catalog item")
	}
	return item, nil
}

func (repo progressRepository) QueryItems(ctx context.Context, kind string) ([]progress.Item, error) {
	items := make([]progress.Item, 0)
	if err := repo.items(ctx, kind).Order("codigo").Find(&items).Error; err != nil {
		return nil, wrap(err, "querying catalog")
	}
	return items, nil
}

func (repo progressRepository) GetItem(ctx context.Context, kind string, id int) (progress.Item, error) {
	var item progress.Item
	if err := repo.items(ctx, kind).Where("id = ?", id).First(&item).Error; err != nil {
		return progress.Item{}, trapNotFound(err, progress.ErrNotFound, "finding catalog item")
	}
	return item, nil
}

func (repo progressRepository) ItemsByCode(ctx context.Context, kind string, codes []string) (map[string]progress.Item, error) {
	found := make(map[string]progress.Item, len(codes))
	if len(codes) == 0 {
		return found, nil
	}
	var items []progress.Item
	if err := repo.items(ctx, kind).Where("codigo IN ?", codes).Find(&items).Error; err != nil {
		return nil, wrap(err, "querying catalog by code")
	}
	for _, it := range items {
		found[it.Code] = it
	}
	return found, nil
}

func (repo progressRepository) RenameItem(ctx context.Context, kind string, id int, name string) (progress.Item, error) {
	res := repo.items(ctx, kind).Where("id = ?", id).Update("nome", name)
	if err := mustAffect(res, progress.ErrNotFound, "renaming catalog item"); err != nil {
		return progress.Item{}, err
	}
	return repo.GetItem(ctx, kind, id)
}

func (repo progressRepository) DeleteItem(ctx context.Context, kind string, id int) error {
	t := catalogTables[kind]
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item progress.Item
		if err := tx.Table(t.items).Where("id = ?", id).First(&item).Error; err != nil {
			return trapNotFound(err, progress.ErrNotFound, "finding catalog item")
		}
		if err := tx.Exec("DELETE FROM "+t.links+" WHERE "+t.code+" = ?", item.Code).Error; err != nil {
			return wrap(err, "deleting member links")
		}
		return wrap(tx.Table(t.items).Where("id = ?", id).Delete(&progress.Item{}).Error, "deleting catalog item")
	})
}

func (repo progressRepository) ImportItems(ctx context.Context, kind string, create, update []progress.Item) error {
	t := catalogTables[kind]
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(create) > 0 {
			if err := tx.Table(t.items).Create(&create).Error; err != nil {
				return wrap(err, "inserting catalog items")
			}
		}
		for _, it := range update {
			if err := tx.Table(t.items).Where("codigo = ?", it.Code).Update("nome", it.Name).Error; err != nil {
				return wrap(err, "renaming catalog item")
			}
		}
		return nil
	})
}

func (repo progressRepository) MemberItems(ctx context.Context, kind, sgc string) ([]progress.Item, error) {
	t := catalogTables[kind]
	items := make([]progress.Item, 0)
	err := repo.db.WithContext(ctx).
		Table(t.links+" AS l").
		Select("i.id, i.codigo, i.nome").
		Joins("JOIN "+t.items+" i ON i.codigo = l."+t.code).
		Where("l.codigo_sgc = ?", sgc).
		Order("i.codigo").
		Scan(&items).Error
	if err != nil {
		return nil, wrap(err, "querying member links")
	}
	return items, nil
}

func (repo progressRepository) SetMemberItems(ctx context.Context, kind, sgc string, diff progress.Diff) error {
	t := catalogTables[kind]
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(diff.Removed) > 0 {
			err := tx.Exec("DELETE FROM "+t.links+" WHERE codigo_sgc = ? AND "+t.code+" IN ?", sgc, diff.Removed).Error
			if err != nil {
				return wrap(err, "removing member links")
			}
		}
		for _, code := range diff.Added {
			err := tx.Exec("INSERT INTO "+t.links+" (codigo_sgc, "+t.code+") VALUES (?, ?)", sgc, code).Error
			if err != nil {
				return wrap(err, "adding member link")
			}
		}
		return nil
	})
}
