package model_test

import (
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/model"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

func TestScoreRisk_AllPairs(t *testing.T) {
	// Rows are probability, columns are impact, both Very_Low..Very_High
	wantScore := [5][5]int{
		{1, 2, 3, 4, 5},
		{2, 4, 6, 8, 10},
		{3, 6, 9, 12, 15},
		{4, 8, 12, 16, 20},
		{5, 10, 15, 20, 25},
	}
	L, M, H, C := types.RiskLevelLow, types.RiskLevelMedium, types.RiskLevelHigh, types.RiskLevelCritical
	wantLevel := [5][5]types.RiskLevel{
		{L, L, L, L, L},
		{L, L, M, M, M},
		{L, M, M, H, H},
		{L, M, H, H, C},
		{L, M, H, C, C},
	}

	ratings := types.AllRatings()
	for pi, p := range ratings {
		for ii, i := range ratings {
			t.Run(fmt.Sprintf("%s x %s", p, i), func(t *testing.T) {
				got, err := model.ScoreRisk(p, i)
				gt.NoError(t, err).Required()
				gt.Value(t, got.Score).Equal(wantScore[pi][ii])
				gt.Value(t, got.Level).Equal(wantLevel[pi][ii])
			})
		}
	}
}

func TestScoreRisk_Boundaries(t *testing.T) {
	tests := []struct {
		name        string
		probability types.Rating
		impact      types.Rating
		score       int
		level       types.RiskLevel
	}{
		{"High x Very_High reaches Critical", types.RatingHigh, types.RatingVeryHigh, 20, types.RiskLevelCritical},
		{"High x High stays High", types.RatingHigh, types.RatingHigh, 16, types.RiskLevelHigh},
		{"Medium x High reaches High", types.RatingMedium, types.RatingHigh, 12, types.RiskLevelHigh},
		{"Very_High x Medium stays High", types.RatingVeryHigh, types.RatingMedium, 15, types.RiskLevelHigh},
		{"Low x Medium reaches Medium", types.RatingLow, types.RatingMedium, 6, types.RiskLevelMedium},
		{"Very_High x Very_Low stays Low", types.RatingVeryHigh, types.RatingVeryLow, 5, types.RiskLevelLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ScoreRisk(tt.probability, tt.impact)
			gt.NoError(t, err).Required()
			gt.Value(t, got.Score).Equal(tt.score)
			gt.Value(t, got.Level).Equal(tt.level)
		})
	}
}

func TestScoreRisk_InvalidInput(t *testing.T) {
	_, err := model.ScoreRisk("Extreme", types.RatingLow)
	gt.Error(t, err).Is(types.ErrInvalidEnum)

	_, err = model.ScoreRisk(types.RatingLow, "")
	gt.Error(t, err).Is(types.ErrInvalidEnum)
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  types.RiskLevel
	}{
		{25, types.RiskLevelCritical},
		{20, types.RiskLevelCritical},
		{19, types.RiskLevelHigh},
		{12, types.RiskLevelHigh},
		{11, types.RiskLevelMedium},
		{6, types.RiskLevelMedium},
		{5, types.RiskLevelLow},
		{1, types.RiskLevelLow},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.score), func(t *testing.T) {
			gt.Value(t, model.LevelForScore(tt.score)).Equal(tt.want)
		})
	}
}

func TestRisk_ApplyScore(t *testing.T) {
	r := &model.Risk{Probability: types.RatingVeryHigh, Impact: types.RatingHigh, Score: 1, Level: types.RiskLevelLow}
	gt.NoError(t, r.ApplyScore()).Required()
	gt.Value(t, r.Score).Equal(20)
	gt.Value(t, r.Level).Equal(types.RiskLevelCritical)

	stale := &model.Risk{Probability: "bogus", Impact: types.RatingHigh, Score: 7, Level: types.RiskLevelMedium}
	gt.Error(t, stale.ApplyScore()).Is(types.ErrInvalidEnum)
	gt.Value(t, stale.Score).Equal(7)
}
