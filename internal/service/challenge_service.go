package service

import (
	"context"
	"time"
)

// ChallengeRepo 每日/奖励挑战的星数键
type ChallengeRepo interface {
	SetDaily(ctx context.Context, profileID uint, date time.Time, stars int) error
	GetDaily(ctx context.Context, profileID uint, date time.Time) (int, bool, error)
	SetBonus(ctx context.Context, profileID uint, date time.Time, stars int) error
	GetBonus(ctx context.Context, profileID uint, date time.Time) (int, bool, error)
}

// ChallengeService 每日挑战：每天一个普通挑战和一个奖励挑战，各记录一个星数
type ChallengeService struct {
	ChallengeRepo ChallengeRepo

	now func() time.Time
}

func NewChallengeService(challengeRepo ChallengeRepo) *ChallengeService {
	return &ChallengeService{ChallengeRepo: challengeRepo, now: time.Now}
}

// ChallengeStatus 当天的挑战状态
type ChallengeStatus struct {
	Date       string `json:"date"`
	DailyDone  bool   `json:"dailyDone"`
	DailyStars int    `json:"dailyStars"`
	BonusDone  bool   `json:"bonusDone"`
	BonusStars int    `json:"bonusStars"`
}

// Today 读取当天两个挑战的完成情况
func (s *ChallengeService) Today(ctx context.Context, profileID uint) (*ChallengeStatus, error) {
	today := s.now()
	dailyStars, dailyDone, err := s.ChallengeRepo.GetDaily(ctx, profileID, today)
	if err != nil {
		return nil, err
	}
	bonusStars, bonusDone, err := s.ChallengeRepo.GetBonus(ctx, profileID, today)
	if err != nil {
		return nil, err
	}
	return &ChallengeStatus{
		Date:       today.Format("2006-01-02"),
		DailyDone:  dailyDone,
		DailyStars: dailyStars,
		BonusDone:  bonusDone,
		BonusStars: bonusStars,
	}, nil
}

// RecordDaily 记录当天普通挑战的星数，重复记录取较高值
func (s *ChallengeService) RecordDaily(ctx context.Context, profileID uint, stars int) error {
	return s.record(ctx, profileID, stars, false)
}

// RecordBonus 记录当天奖励挑战的星数
func (s *ChallengeService) RecordBonus(ctx context.Context, profileID uint, stars int) error {
	return s.record(ctx, profileID, stars, true)
}

func (s *ChallengeService) record(ctx context.Context, profileID uint, stars int, bonus bool) error {
	if stars < 0 {
		stars = 0
	}
	if stars > 3 {
		stars = 3
	}
	today := s.now()

	var existing int
	var done bool
	var err error
	if bonus {
		existing, done, err = s.ChallengeRepo.GetBonus(ctx, profileID, today)
	} else {
		existing, done, err = s.ChallengeRepo.GetDaily(ctx, profileID, today)
	}
	if err != nil {
		return err
	}
	if done && existing >= stars {
		return nil
	}

	if bonus {
		return s.ChallengeRepo.SetBonus(ctx, profileID, today, stars)
	}
	return s.ChallengeRepo.SetDaily(ctx, profileID, today, stars)
}
