package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"lerntrainer_backend/internal/model"
	"lerntrainer_backend/internal/util"

	"gorm.io/gorm"
)

// ContentService 题目内容的导入与查询（内容提供方接口）
// 引擎侧对题目严格只读，写入只发生在教师角色的内容包导入
type ContentService struct {
	ExerciseRepo ExerciseRepo
}

func NewContentService(exerciseRepo ExerciseRepo) *ContentService {
	return &ContentService{ExerciseRepo: exerciseRepo}
}

// ExerciseImport 内容包里的单条题目
type ExerciseImport struct {
	ExerciseID        string          `json:"exerciseId" binding:"required"`
	Type              string          `json:"type" binding:"required"`
	ThemeID           string          `json:"themeId" binding:"required"`
	AreaID            string          `json:"areaId"`
	Level             int             `json:"level" binding:"required"`
	Difficulty        int             `json:"difficulty"`
	Instruction       string          `json:"instruction"`
	Content           json.RawMessage `json:"content"`
	Hints             []string        `json:"hints"`
	FeedbackCorrect   string          `json:"feedbackCorrect"`
	FeedbackIncorrect string          `json:"feedbackIncorrect"`
}

// ImportExercises 校验后逐条 Upsert，返回导入条数
func (s *ContentService) ImportExercises(items []ExerciseImport) (int, error) {
	for i := range items {
		if err := validateImport(&items[i]); err != nil {
			return 0, err
		}
	}

	count := 0
	for i := range items {
		item := &items[i]
		exercise := &model.Exercise{
			ExerciseID:        item.ExerciseID,
			Type:              item.Type,
			ThemeID:           item.ThemeID,
			AreaID:            item.AreaID,
			Level:             item.Level,
			Difficulty:        item.Difficulty,
			Instruction:       item.Instruction,
			Content:           item.Content,
			Hints:             item.Hints,
			FeedbackCorrect:   item.FeedbackCorrect,
			FeedbackIncorrect: item.FeedbackIncorrect,
		}
		if exercise.Difficulty == 0 {
			exercise.Difficulty = util.MinDifficulty
		}
		if err := s.ExerciseRepo.Upsert(exercise); err != nil {
			return count, fmt.Errorf("%w: import exercise %s: %v", util.ErrPersistence, item.ExerciseID, err)
		}
		count++
	}
	return count, nil
}

// ListExercises 查询主题+等级下的有序题目
func (s *ContentService) ListExercises(themeID string, level int, areaID string) ([]model.Exercise, error) {
	return s.ExerciseRepo.FindByThemeAndLevel(themeID, level, areaID)
}

// GetExercise 按公开题目ID读取单条题目
func (s *ContentService) GetExercise(exerciseID string) (*model.Exercise, error) {
	exercise, err := s.ExerciseRepo.FindByExerciseID(exerciseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExerciseNotFound
		}
		return nil, fmt.Errorf("%w: load exercise: %v", util.ErrPersistence, err)
	}
	return exercise, nil
}

// ListThemes 全部主题ID
func (s *ContentService) ListThemes() ([]string, error) {
	return s.ExerciseRepo.DistinctThemeIDs()
}

func validateImport(item *ExerciseImport) error {
	if item.Level < util.MinThemeLevel || item.Level > util.MaxThemeLevel {
		return fmt.Errorf("exercise %s: level %d out of range", item.ExerciseID, item.Level)
	}
	if item.Difficulty != 0 && (item.Difficulty < util.MinDifficulty || item.Difficulty > util.MaxDifficulty) {
		return fmt.Errorf("exercise %s: difficulty %d out of range", item.ExerciseID, item.Difficulty)
	}
	return nil
}
