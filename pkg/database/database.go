package database

import (
	"fmt"
	"lerntrainer_backend/internal/config"
	"lerntrainer_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.Profile{},
		&model.Badge{},
		&model.BadgeDefinition{},
		&model.Exercise{},
		&model.ExerciseResult{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认徽章定义（为空时插入），SortOrder 决定评估与通知顺序
	var count int64
	db.Model(&model.BadgeDefinition{}).Count(&count)
	if count == 0 {
		defaultBadges := []model.BadgeDefinition{
			{BadgeID: "first-star", Name: "Erster Stern", Description: "Sammle deinen ersten Stern", Icon: "star", RuleKind: model.RuleTotalStars, Threshold: 1, SortOrder: 1, Enabled: true},
			{BadgeID: "star-collector", Name: "Sternsammler", Description: "Sammle 25 Sterne", Icon: "stars", RuleKind: model.RuleTotalStars, Threshold: 25, SortOrder: 2, Enabled: true},
			{BadgeID: "star-master", Name: "Sternenmeister", Description: "Sammle 100 Sterne", Icon: "trophy", RuleKind: model.RuleTotalStars, Threshold: 100, SortOrder: 3, Enabled: true},
			{BadgeID: "streak-3", Name: "Dranbleiber", Description: "Lerne an 3 Tagen hintereinander", Icon: "flame", RuleKind: model.RuleStreak, Threshold: 3, SortOrder: 4, Enabled: true},
			{BadgeID: "streak-7", Name: "Wochenheld", Description: "Lerne an 7 Tagen hintereinander", Icon: "fire", RuleKind: model.RuleStreak, Threshold: 7, SortOrder: 5, Enabled: true},
			{BadgeID: "theme-1", Name: "Themenstarter", Description: "Schließe dein erstes Thema ab", Icon: "book", RuleKind: model.RuleThemesCompleted, Threshold: 1, SortOrder: 6, Enabled: true},
			{BadgeID: "theme-3", Name: "Themenkenner", Description: "Schließe 3 Themen ab", Icon: "books", RuleKind: model.RuleThemesCompleted, Threshold: 3, SortOrder: 7, Enabled: true},
		}
		for _, b := range defaultBadges {
			db.Create(&b)
		}
	}

	return db, nil
}
