// Package detection learns upload cadences and decides which expected
// documents have not arrived.
package detection

import (
	"math"
	"sort"
	"time"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/Veraticus/the-paperwork-must-flow/internal/model"
)

// Frequency band upper bounds, in days of mean interval.
const (
	monthlyMaxDays    = 35
	quarterlyMaxDays  = 100
	halfYearlyMaxDays = 200
	yearlyMaxDays     = 400
)

const (
	// highVarianceCV forces an irregular classification regardless of band.
	highVarianceCV = 0.5
	// extremeVarianceCV marks a stream as volatile.
	extremeVarianceCV = 1.0
	// consistencyDecay controls how fast consistency falls with variation.
	consistencyDecay = 3.0
	// sampleSaturation is the interval count at which sample size stops adding confidence.
	sampleSaturation = 5

	sampleWeight      = 40.0
	consistencyWeight = 45.0
	stabilityWeight   = 15.0

	singleUploadScore  = 10.0
	irregularScoreCap  = 45.0
	unknownScoreCap    = 20.0
	minIrregularSample = 3
)

// Grace periods by frequency, in days.
var gracePeriodDays = map[model.Frequency]int{
	model.FrequencyMonthly:    5,
	model.FrequencyQuarterly:  10,
	model.FrequencyHalfYearly: 14,
	model.FrequencyYearly:     21,
	model.FrequencyIrregular:  14,
}

// DetectPattern infers the cadence of one (document type, source) stream from
// its upload dates. It returns nil when there is nothing to learn from. The
// result does not depend on the order of uploads and the slice is not modified.
func DetectPattern(docType model.DocumentType, source string, uploads []time.Time) *model.DocumentPattern {
	if len(uploads) == 0 {
		return nil
	}

	dates := make([]time.Time, len(uploads))
	copy(dates, uploads)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	last := dates[len(dates)-1]
	pattern := &model.DocumentPattern{
		DocumentType:    docType,
		Source:          source,
		UploadsAnalyzed: len(dates),
		DateRange:       model.DateRange{Start: dates[0], End: last},
	}

	if len(dates) == 1 {
		pattern.Frequency = model.FrequencyUnknown
		pattern.Stability = model.StabilityStable
		pattern.ConfidenceScore = singleUploadScore
		pattern.Confidence = model.ConfidenceLevelForScore(singleUploadScore)
		pattern.GracePeriodDays = docType.DefaultGracePeriodDays()
		return pattern
	}

	intervals := dayIntervals(dates)
	stats := computeStatistics(intervals)

	frequency := classifyFrequency(stats.AverageIntervalDays)
	if frequency != model.FrequencyUnknown && stats.CoefficientOfVariation > highVarianceCV {
		frequency = model.FrequencyIrregular
	}

	stability := assessStability(intervals, stats.CoefficientOfVariation)
	score := confidenceScore(len(intervals), stats.ConsistencyScore, stability, frequency)

	pattern.Statistics = &stats
	pattern.Frequency = frequency
	pattern.Stability = stability
	pattern.ConfidenceScore = score
	pattern.Confidence = model.ConfidenceLevelForScore(score)
	pattern.GracePeriodDays = gracePeriodFor(docType, frequency)

	if frequency.IsPeriodic() {
		day := modalDayOfMonth(dates)
		pattern.ExpectedDayOfMonth = &day
	}

	if frequency.IsPeriodic() || (frequency == model.FrequencyIrregular && len(dates) >= minIrregularSample) {
		next := common.AddDays(last, int(math.Round(stats.AverageIntervalDays)))
		pattern.NextExpectedDate = &next
	}

	return pattern
}

// dayIntervals returns the calendar-day gaps between consecutive sorted dates.
func dayIntervals(dates []time.Time) []int {
	intervals := make([]int, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		intervals = append(intervals, common.DaysBetween(dates[i-1], dates[i]))
	}
	return intervals
}

func computeStatistics(intervals []int) model.IntervalStatistics {
	mean := meanOf(intervals)

	var variance float64
	minDays, maxDays := intervals[0], intervals[0]
	for _, iv := range intervals {
		diff := float64(iv) - mean
		variance += diff * diff
		if iv < minDays {
			minDays = iv
		}
		if iv > maxDays {
			maxDays = iv
		}
	}
	stdDev := math.Sqrt(variance / float64(len(intervals)))

	var cv float64
	if mean > 0 {
		cv = stdDev / mean
	}

	return model.IntervalStatistics{
		AverageIntervalDays:    mean,
		IntervalStdDev:         stdDev,
		MinIntervalDays:        minDays,
		MaxIntervalDays:        maxDays,
		CoefficientOfVariation: cv,
		ConsistencyScore:       math.Exp(-consistencyDecay * cv),
	}
}

func meanOf(intervals []int) float64 {
	if len(intervals) == 0 {
		return 0
	}
	var sum int
	for _, iv := range intervals {
		sum += iv
	}
	return float64(sum) / float64(len(intervals))
}

// classifyFrequency bands a mean interval. Means under one day carry no cadence.
func classifyFrequency(meanDays float64) model.Frequency {
	switch {
	case meanDays < 1:
		return model.FrequencyUnknown
	case meanDays <= monthlyMaxDays:
		return model.FrequencyMonthly
	case meanDays <= quarterlyMaxDays:
		return model.FrequencyQuarterly
	case meanDays <= halfYearlyMaxDays:
		return model.FrequencyHalfYearly
	case meanDays <= yearlyMaxDays:
		return model.FrequencyYearly
	default:
		return model.FrequencyIrregular
	}
}

// assessStability compares the cadence of the earliest half of the history
// with the trailing half.
func assessStability(intervals []int, cv float64) model.PatternStability {
	for _, iv := range intervals {
		if iv < 1 {
			return model.StabilityVolatile
		}
	}
	if cv > extremeVarianceCV {
		return model.StabilityVolatile
	}

	if len(intervals) >= 2 {
		mid := len(intervals) / 2
		early := classifyFrequency(meanOf(intervals[:mid]))
		late := classifyFrequency(meanOf(intervals[mid:]))
		if early != late {
			return model.StabilityChanging
		}
	}

	return model.StabilityStable
}

func stabilityFactor(s model.PatternStability) float64 {
	switch s {
	case model.StabilityStable:
		return 1.0
	case model.StabilityChanging:
		return 0.4
	case model.StabilityVolatile:
		return 0
	default:
		return 0
	}
}

func confidenceScore(intervalCount int, consistency float64, stability model.PatternStability, frequency model.Frequency) float64 {
	sample := math.Min(1, float64(intervalCount)/sampleSaturation)
	score := sampleWeight*sample + consistencyWeight*consistency + stabilityWeight*stabilityFactor(stability)

	switch frequency {
	case model.FrequencyIrregular:
		score = math.Min(score, irregularScoreCap)
	case model.FrequencyUnknown:
		score = math.Min(score, unknownScoreCap)
	case model.FrequencyMonthly, model.FrequencyQuarterly, model.FrequencyHalfYearly, model.FrequencyYearly:
	}

	score = math.Max(0, math.Min(100, score))
	return math.Round(score*10) / 10
}

func gracePeriodFor(docType model.DocumentType, frequency model.Frequency) int {
	if days, ok := gracePeriodDays[frequency]; ok {
		return days
	}
	return docType.DefaultGracePeriodDays()
}

// modalDayOfMonth returns the most common day of month; ties go to the earlier day.
func modalDayOfMonth(dates []time.Time) int {
	counts := make(map[int]int)
	for _, d := range dates {
		counts[d.Day()]++
	}

	best, bestCount := 0, 0
	for day := 1; day <= 31; day++ {
		if counts[day] > bestCount {
			best, bestCount = day, counts[day]
		}
	}
	return best
}
