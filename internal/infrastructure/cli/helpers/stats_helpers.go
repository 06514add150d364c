package helpers

import (
	"sort"

	"github.com/doeshing/vitals/internal/domain"
)

// CountStatistic is one row of a frequency table.
type CountStatistic struct {
	Key   string
	Count int
}

// CalculateTopCounts returns the top N most frequent keys
// If limit is 0 or negative, returns all keys
func CalculateTopCounts(frequency map[string]int, limit int) []CountStatistic {
	stats := convertFrequencyMapToStatistics(frequency)
	sortStatisticsByFrequency(stats)

	if shouldLimitResults(limit, len(stats)) {
		return stats[:limit]
	}
	return stats
}

// convertFrequencyMapToStatistics converts a map to a slice of CountStatistic
func convertFrequencyMapToStatistics(frequency map[string]int) []CountStatistic {
	stats := make([]CountStatistic, 0, len(frequency))
	for key, count := range frequency {
		stats = append(stats, CountStatistic{
			Key:   key,
			Count: count,
		})
	}
	return stats
}

// sortStatisticsByFrequency sorts statistics by count (descending) then by key (ascending)
func sortStatisticsByFrequency(stats []CountStatistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Key < stats[j].Key
		}
		return stats[i].Count > stats[j].Count
	})
}

// shouldLimitResults checks if we should limit the results based on the limit and actual length
func shouldLimitResults(limit int, actualLength int) bool {
	return limit > 0 && actualLength > limit
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, totalCount int) float64 {
	if totalCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(totalCount) * 100.0
}

// HistoryStatistics aggregates persisted runs.
type HistoryStatistics struct {
	Runs        int
	HealthyRuns int
	Checks      int
	Passed      int
	AutoFixed   int
	ByOverall   map[domain.Status]int
	// Failing counts how often each check ended negative across runs.
	Failing map[string]int
}

// AnalyzeReports computes run and per-check statistics.
func AnalyzeReports(reports []domain.HealthReport) HistoryStatistics {
	stats := HistoryStatistics{
		ByOverall: make(map[domain.Status]int),
		Failing:   make(map[string]int),
	}

	for _, report := range reports {
		stats.Runs++
		stats.ByOverall[report.OverallStatus]++
		if report.OverallStatus == domain.StatusPass {
			stats.HealthyRuns++
		}
		stats.AutoFixed += report.AutoFixedCount()
		for _, entry := range report.Results {
			stats.Checks++
			if entry.Result.Status == domain.StatusPass {
				stats.Passed++
				continue
			}
			stats.Failing[entry.CheckID]++
		}
	}

	return stats
}
