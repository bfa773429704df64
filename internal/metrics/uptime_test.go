package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babysitter/internal/models"
)

func TestComputeTargetUptime(t *testing.T) {
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	records := []models.CycleRecord{
		{
			Timestamp: base,
			Outcomes: []models.TargetOutcome{
				{Name: "disk-A", Passed: true, Detail: "free 900MB"},
				{Name: "proc-B", Passed: false, Detail: "not running"},
			},
		},
		{
			Timestamp: base.Add(10 * time.Second),
			Outcomes: []models.TargetOutcome{
				{Name: "disk-A", Passed: true, Detail: "free 899MB"},
				{Name: "proc-B", Passed: true, Detail: "running (pid 9)"},
			},
		},
	}

	summary := ComputeTargetUptime(records)
	require.Len(t, summary, 2)

	// Sorted by name.
	assert.Equal(t, "disk-A", summary[0].Name)
	assert.Equal(t, 100.0, summary[0].UptimePercent)
	assert.Equal(t, 2, summary[0].TotalCycles)

	assert.Equal(t, "proc-B", summary[1].Name)
	assert.Equal(t, 50.0, summary[1].UptimePercent)
	assert.Equal(t, 1, summary[1].Passing)
	assert.Equal(t, 1, summary[1].Failing)
	assert.Equal(t, "running (pid 9)", summary[1].LastDetail)
	assert.Equal(t, base.Add(10*time.Second).Format(time.RFC3339), summary[1].LastChecked)
}

func TestComputeTargetUptimeEmpty(t *testing.T) {
	assert.Nil(t, ComputeTargetUptime(nil))
}
