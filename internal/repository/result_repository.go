package repository

import (
	"lerntrainer_backend/internal/model"

	"gorm.io/gorm"
)

// ResultRepository 练习结果的持久层（追加写入的日志）
// 没有 Update：结果一旦写入不再变更
type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

// Create 追加一条结果记录
func (r *ResultRepository) Create(result *model.ExerciseResult) error {
	return r.DB.Create(result).Error
}

// HasCompleted 查询某档案是否已正确完成过某题（跨会话的去重判定）
func (r *ResultRepository) HasCompleted(profileID uint, exerciseID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ExerciseResult{}).
		Where("profile_id = ? AND exercise_id = ? AND correct = ?", profileID, exerciseID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CompletedExerciseIDs 返回主题+等级下已正确完成的题目ID集合
func (r *ResultRepository) CompletedExerciseIDs(profileID uint, themeID string, level int) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.ExerciseResult{}).
		Where("profile_id = ? AND theme_id = ? AND level = ? AND correct = ?", profileID, themeID, level, true).
		Distinct("exercise_id").
		Pluck("exercise_id", &ids).Error
	return ids, err
}

// CompletedByTheme 统计主题下已正确完成的不同题目数（全部等级）
func (r *ResultRepository) CompletedByTheme(profileID uint, themeID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExerciseResult{}).
		Where("profile_id = ? AND theme_id = ? AND correct = ?", profileID, themeID, true).
		Distinct("exercise_id").
		Count(&count).Error
	return count, err
}

// DeleteByProfile 教师发起的档案重置时级联删除全部结果
func (r *ResultRepository) DeleteByProfile(profileID uint) error {
	return r.DB.Unscoped().Where("profile_id = ?", profileID).Delete(&model.ExerciseResult{}).Error
}
