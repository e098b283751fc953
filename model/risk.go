package model

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// RiskLevel classifies a transaction.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskLevels lists every level in ascending order of severity.
var RiskLevels = []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical}

// IsValid reports whether l is one of the four enumerated levels.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

// Severity returns the position of l in RiskLevels, or -1 for unknown levels.
func (l RiskLevel) Severity() int {
	for i, candidate := range RiskLevels {
		if candidate == l {
			return i
		}
	}
	return -1
}

// ParseRiskLevel parses a case-insensitive level name.
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if !level.IsValid() {
		return "", errors.Newf("unknown risk level %q", s)
	}
	return level, nil
}

// RiskVerdict is the evaluator's classification of a transaction.
type RiskVerdict struct {
	Level       RiskLevel `json:"level"`
	Factors     []string  `json:"factors,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
}

// Validate checks that the verdict is usable by the engine.
func (v *RiskVerdict) Validate() error {
	if v == nil {
		return errors.New("verdict is nil")
	}
	if !v.Level.IsValid() {
		return errors.Newf("verdict level %q is not recognised", v.Level)
	}
	return nil
}

// Clone returns a deep copy of the verdict.
func (v *RiskVerdict) Clone() *RiskVerdict {
	if v == nil {
		return nil
	}
	ret := *v
	ret.Factors = append([]string(nil), v.Factors...)
	return &ret
}
