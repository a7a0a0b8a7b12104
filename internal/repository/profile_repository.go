package repository

import (
	"lerntrainer_backend/internal/model"

	"gorm.io/gorm"
)

// ProfileRepository 档案聚合的持久层
type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) Create(profile *model.Profile) error {
	return r.DB.Create(profile).Error
}

// FindByID 取完整聚合（含徽章）
func (r *ProfileRepository) FindByID(id uint) (*model.Profile, error) {
	var profile model.Profile
	err := r.DB.Preload("Badges", func(db *gorm.DB) *gorm.DB {
		return db.Order("badges.id ASC")
	}).First(&profile, id).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// NicknameExists 昵称查重（注册校验）
func (r *ProfileRepository) NicknameExists(nickname string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Profile{}).Where("nickname = ?", nickname).Count(&count).Error
	return count > 0, err
}

// Update 全量保存聚合（徽章关联单独通过 AppendBadges 追加）
func (r *ProfileRepository) Update(profile *model.Profile) error {
	return r.DB.Omit("Badges").Save(profile).Error
}

// AppendBadges 只追加新徽章，已有徽章不动
func (r *ProfileRepository) AppendBadges(profileID uint, badges []model.Badge) error {
	for i := range badges {
		badges[i].ProfileID = profileID
		if err := r.DB.Create(&badges[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReplaceBadges 存档导入时整体替换徽章（导入是整档案覆盖，不受只追加约束）
func (r *ProfileRepository) ReplaceBadges(profileID uint, badges []model.Badge) error {
	if err := r.DB.Unscoped().Where("profile_id = ?", profileID).Delete(&model.Badge{}).Error; err != nil {
		return err
	}
	return r.AppendBadges(profileID, badges)
}

// Delete 档案重置：物理删除（结果日志由调用方级联删除）
func (r *ProfileRepository) Delete(id uint) error {
	if err := r.DB.Unscoped().Where("profile_id = ?", id).Delete(&model.Badge{}).Error; err != nil {
		return err
	}
	return r.DB.Unscoped().Delete(&model.Profile{}, id).Error
}

// FindTopByStars 按总星数倒序取排行榜
func (r *ProfileRepository) FindTopByStars(limit int) ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.DB.Order("total_stars DESC, id ASC").Limit(limit).Find(&profiles).Error
	return profiles, err
}
