package repository

import (
	"lerntrainer_backend/internal/model"

	"gorm.io/gorm"
)

// ExerciseRepository 题目内容仓库，引擎侧只读
type ExerciseRepository struct {
	DB *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: db}
}

// FindByThemeAndLevel 按主题+等级返回有序题目列表，areaID 为空表示不过滤
func (r *ExerciseRepository) FindByThemeAndLevel(themeID string, level int, areaID string) ([]model.Exercise, error) {
	var exercises []model.Exercise
	query := r.DB.Where("theme_id = ? AND level = ?", themeID, level)
	if areaID != "" {
		query = query.Where("area_id = ?", areaID)
	}
	err := query.Order("difficulty ASC, id ASC").Find(&exercises).Error
	return exercises, err
}

// FindByExerciseID 按公开题目ID查询
func (r *ExerciseRepository) FindByExerciseID(exerciseID string) (*model.Exercise, error) {
	var exercise model.Exercise
	err := r.DB.Where("exercise_id = ?", exerciseID).First(&exercise).Error
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// CountByTheme 统计主题下的题目总数（全部等级）
func (r *ExerciseRepository) CountByTheme(themeID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Exercise{}).Where("theme_id = ?", themeID).Count(&count).Error
	return count, err
}

// DistinctThemeIDs 返回内容库中出现过的全部主题
func (r *ExerciseRepository) DistinctThemeIDs() ([]string, error) {
	var themes []string
	err := r.DB.Model(&model.Exercise{}).Distinct("theme_id").Order("theme_id").Pluck("theme_id", &themes).Error
	return themes, err
}

// Upsert 按 exercise_id 更新或插入（内容包导入）
func (r *ExerciseRepository) Upsert(exercise *model.Exercise) error {
	var existing model.Exercise
	err := r.DB.Where("exercise_id = ?", exercise.ExerciseID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(exercise).Error
	}
	if err != nil {
		return err
	}
	exercise.ID = existing.ID
	return r.DB.Save(exercise).Error
}
