package model

import (
	"fmt"
	"time"
)

// Frequency is the cadence classification of an upload stream.
type Frequency string

// Frequency constants.
const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencyHalfYearly Frequency = "half_yearly"
	FrequencyYearly     Frequency = "yearly"
	FrequencyIrregular  Frequency = "irregular"
	FrequencyUnknown    Frequency = "unknown"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyHalfYearly, FrequencyYearly,
		FrequencyIrregular, FrequencyUnknown:
		return true
	default:
		return false
	}
}

// IsPeriodic reports whether the frequency describes a regular cadence.
func (f Frequency) IsPeriodic() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyHalfYearly, FrequencyYearly:
		return true
	case FrequencyIrregular, FrequencyUnknown:
		return false
	default:
		return false
	}
}

// ConfidenceLevel is the label band of a confidence score.
type ConfidenceLevel string

// Confidence level constants.
const (
	ConfidenceHigh      ConfidenceLevel = "high"
	ConfidenceMedium    ConfidenceLevel = "medium"
	ConfidenceLow       ConfidenceLevel = "low"
	ConfidenceUncertain ConfidenceLevel = "uncertain"
)

// Valid reports whether c is one of the known confidence levels.
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceUncertain:
		return true
	default:
		return false
	}
}

// Actionable reports whether the level is strong enough to alert on or to
// create an external commitment from.
func (c ConfidenceLevel) Actionable() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium:
		return true
	case ConfidenceLow, ConfidenceUncertain:
		return false
	default:
		return false
	}
}

// ConfidenceLevelForScore maps a 0-100 score onto its label band.
func ConfidenceLevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 50:
		return ConfidenceMedium
	case score >= 25:
		return ConfidenceLow
	default:
		return ConfidenceUncertain
	}
}

// PatternStability describes whether a cadence held across the analyzed history.
type PatternStability string

// Pattern stability constants.
const (
	StabilityStable   PatternStability = "stable"
	StabilityChanging PatternStability = "changing"
	StabilityVolatile PatternStability = "volatile"
)

// Valid reports whether s is one of the known stability values.
func (s PatternStability) Valid() bool {
	switch s {
	case StabilityStable, StabilityChanging, StabilityVolatile:
		return true
	default:
		return false
	}
}

// IntervalStatistics summarises the day gaps between consecutive uploads.
type IntervalStatistics struct {
	AverageIntervalDays    float64
	IntervalStdDev         float64
	MinIntervalDays        int
	MaxIntervalDays        int
	CoefficientOfVariation float64
	ConsistencyScore       float64
}

// PatternChange records a frequency reclassification between two analysis runs.
type PatternChange struct {
	DetectedAt      time.Time
	FromFrequency   Frequency
	ToFrequency     Frequency
	ID              int64
	PatternID       int64
	UploadsAnalyzed int
}

// DateRange is an inclusive span of time.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DocumentPattern is the learned cadence of one (document type, source) stream.
type DocumentPattern struct {
	AnalyzedAt         time.Time
	DateRange          DateRange
	ExpectedDayOfMonth *int
	Statistics         *IntervalStatistics
	NextExpectedDate   *time.Time
	DocumentType       DocumentType
	Source             string
	Frequency          Frequency
	Confidence         ConfidenceLevel
	Stability          PatternStability
	PatternChanges     []PatternChange
	ConfidenceScore    float64
	ID                 int64
	GracePeriodDays    int
	UploadsAnalyzed    int
}

// Key returns the pattern identity.
func (p *DocumentPattern) Key() PatternKey {
	return PatternKey{DocumentType: p.DocumentType, Source: p.Source}
}

// LastUploadDate is the most recent upload the pattern was built from.
func (p *DocumentPattern) LastUploadDate() time.Time {
	return p.DateRange.End
}

// Validate checks the invariants every stored pattern must satisfy.
func (p *DocumentPattern) Validate() error {
	if p.DocumentType == "" {
		return fmt.Errorf("document type is required")
	}
	if p.Source == "" {
		return fmt.Errorf("source is required")
	}
	if !p.Frequency.Valid() {
		return fmt.Errorf("invalid frequency %q", p.Frequency)
	}
	if !p.Confidence.Valid() {
		return fmt.Errorf("invalid confidence %q", p.Confidence)
	}
	if !p.Stability.Valid() {
		return fmt.Errorf("invalid stability %q", p.Stability)
	}
	if p.ConfidenceScore < 0 || p.ConfidenceScore > 100 {
		return fmt.Errorf("confidence score must be between 0 and 100")
	}
	if p.UploadsAnalyzed < 1 {
		return fmt.Errorf("uploads analyzed must be at least 1")
	}
	if p.GracePeriodDays <= 0 {
		return fmt.Errorf("grace period must be positive")
	}
	if p.NextExpectedDate != nil && p.NextExpectedDate.Before(p.DateRange.End) {
		return fmt.Errorf("next expected date precedes last upload")
	}
	return nil
}
