package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
)

// Level thresholds, evaluated from the highest bucket down
const (
	CriticalScoreThreshold = 20
	HighScoreThreshold     = 12
	MediumScoreThreshold   = 6
)

// RiskScore is the result of scoring a probability/impact pair
type RiskScore struct {
	Score int
	Level types.RiskLevel
}

// ScoreRisk maps a probability/impact pair to a score in 1..25 and its level.
func ScoreRisk(probability, impact types.Rating) (RiskScore, error) {
	if !probability.IsValid() {
		return RiskScore{}, goerr.Wrap(types.ErrInvalidEnum, "invalid probability",
			goerr.V(types.EnumKindKey, "probability"),
			goerr.V(types.EnumValueKey, probability))
	}
	if !impact.IsValid() {
		return RiskScore{}, goerr.Wrap(types.ErrInvalidEnum, "invalid impact",
			goerr.V(types.EnumKindKey, "impact"),
			goerr.V(types.EnumValueKey, impact))
	}

	score := probability.Value() * impact.Value()
	return RiskScore{Score: score, Level: LevelForScore(score)}, nil
}

// LevelForScore returns the risk level bucket of a numeric score
func LevelForScore(score int) types.RiskLevel {
	switch {
	case score >= CriticalScoreThreshold:
		return types.RiskLevelCritical
	case score >= HighScoreThreshold:
		return types.RiskLevelHigh
	case score >= MediumScoreThreshold:
		return types.RiskLevelMedium
	default:
		return types.RiskLevelLow
	}
}
