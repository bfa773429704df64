package metrics

import (
	"math"
	"sort"
	"time"

	"babysitter/internal/models"
)

// TargetUptime summarises the health of a babysat target.
type TargetUptime struct {
	Name          string  `json:"name"`
	UptimePercent float64 `json:"uptime_percent"`
	TotalCycles   int     `json:"total_cycles"`
	Passing       int     `json:"passing"`
	Failing       int     `json:"failing"`
	LastDetail    string  `json:"last_detail,omitempty"`
	LastChecked   string  `json:"last_checked,omitempty"`
}

// ComputeTargetUptime aggregates uptime statistics per target from cycle
// records.
func ComputeTargetUptime(records []models.CycleRecord) []TargetUptime {
	type acc struct {
		passing    int
		failing    int
		lastDetail string
		lastTime   time.Time
	}
	state := make(map[string]*acc)
	for _, record := range records {
		for _, outcome := range record.Outcomes {
			target := state[outcome.Name]
			if target == nil {
				target = &acc{}
				state[outcome.Name] = target
			}
			if outcome.Passed {
				target.passing++
			} else {
				target.failing++
			}
			target.lastDetail = outcome.Detail
			target.lastTime = record.Timestamp
		}
	}
	if len(state) == 0 {
		return nil
	}

	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]TargetUptime, 0, len(names))
	for _, name := range names {
		data := state[name]
		total := data.passing + data.failing
		uptime := 0.0
		if total > 0 {
			uptime = float64(data.passing) / float64(total) * 100
		}

		result := TargetUptime{
			Name:          name,
			UptimePercent: round2(uptime),
			TotalCycles:   total,
			Passing:       data.passing,
			Failing:       data.failing,
			LastDetail:    data.lastDetail,
		}
		if !data.lastTime.IsZero() {
			result.LastChecked = data.lastTime.UTC().Format(time.RFC3339)
		}
		results = append(results, result)
	}
	return results
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
