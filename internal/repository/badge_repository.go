package repository

import (
	"lerntrainer_backend/internal/model"

	"gorm.io/gorm"
)

// BadgeRepository 徽章定义仓库
type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

// ListDefinitions 按 SortOrder 返回启用的徽章定义，顺序即评估与通知顺序
func (r *BadgeRepository) ListDefinitions() ([]model.BadgeDefinition, error) {
	var defs []model.BadgeDefinition
	err := r.DB.Where("enabled = ?", true).Order("sort_order ASC, id ASC").Find(&defs).Error
	return defs, err
}
