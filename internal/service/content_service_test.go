package service

import (
	"testing"

	"lerntrainer_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportExercises(t *testing.T) {
	repo := newMemExerciseRepo()
	svc := NewContentService(repo)

	count, err := svc.ImportExercises([]ExerciseImport{
		{ExerciseID: "colors-l1-e1", Type: "multiple-choice", ThemeID: "colors", Level: 1, Difficulty: 2},
		{ExerciseID: "colors-l1-e2", Type: "drag-drop", ThemeID: "colors", Level: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// 未指定难度时落到最低档
	ex, err := repo.FindByExerciseID("colors-l1-e2")
	require.NoError(t, err)
	assert.Equal(t, 1, ex.Difficulty)

	// 同 exerciseId 再导入是覆盖
	count, err = svc.ImportExercises([]ExerciseImport{
		{ExerciseID: "colors-l1-e1", Type: "multiple-choice", ThemeID: "colors", Level: 1, Difficulty: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	total, err := repo.CountByTheme("colors")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestImportExercisesValidatesBeforeWriting(t *testing.T) {
	repo := newMemExerciseRepo()
	svc := NewContentService(repo)

	// 第二条越界：整批拒绝，零写入
	count, err := svc.ImportExercises([]ExerciseImport{
		{ExerciseID: "ok", Type: "multiple-choice", ThemeID: "colors", Level: 1},
		{ExerciseID: "bad", Type: "multiple-choice", ThemeID: "colors", Level: 9},
	})
	assert.Error(t, err)
	assert.Equal(t, 0, count)

	total, err := repo.CountByTheme("colors")
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestGetExercise(t *testing.T) {
	svc := NewContentService(newMemExerciseRepo(exercisesForLevel("colors", 1, 2)...))

	ex, err := svc.GetExercise("colors-l1-eb")
	require.NoError(t, err)
	assert.Equal(t, "colors-l1-eb", ex.ExerciseID)

	_, err = svc.GetExercise("missing")
	assert.ErrorIs(t, err, util.ErrExerciseNotFound)
}

func TestListThemes(t *testing.T) {
	repo := newMemExerciseRepo(exercisesForLevel("colors", 1, 1)...)
	svc := NewContentService(repo)

	require.NoError(t, repo.Upsert(&exercisesForLevel("numbers", 1, 1)[0]))

	themes, err := svc.ListThemes()
	require.NoError(t, err)
	assert.Equal(t, []string{"colors", "numbers"}, themes)
}
