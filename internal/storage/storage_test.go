package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babysitter/internal/models"
)

func record(name string, passed bool) models.CycleRecord {
	return models.CycleRecord{
		Timestamp: time.Now().UTC(),
		Outcomes:  []models.TargetOutcome{{Name: name, Passed: passed}},
	}
}

func TestAppendAndReload(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCycleStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s.Append(record("disk-A", false)))
	require.NoError(t, s.Append(record("disk-A", true)))
	require.NoError(t, s.Close())

	s2, err := NewCycleStorage(dir)
	require.NoError(t, err)
	defer s2.Close()

	history := s2.History()
	require.Len(t, history, 2)
	assert.False(t, history[0].Outcomes[0].Passed)
	assert.True(t, history[1].Outcomes[0].Passed)

	latest, ok := s2.Latest()
	require.True(t, ok)
	assert.True(t, latest.Outcomes[0].Passed)
}

func TestSecondInstanceRejected(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCycleStorage(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = NewCycleStorage(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in use")
}

func TestHistoryN(t *testing.T) {
	s, err := NewCycleStorage(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(record("t", i%2 == 0)))
	}

	assert.Len(t, s.HistoryN(3), 3)
	assert.Len(t, s.HistoryN(0), 5)
	assert.Len(t, s.HistoryN(100), 5)
}

func TestHistoryCap(t *testing.T) {
	s, err := NewCycleStorage(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	s.maxHistory = 3

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Append(record("t", true)))
	}

	assert.Len(t, s.History(), 3)
}

func TestLatestEmpty(t *testing.T) {
	s, err := NewCycleStorage(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Latest()
	assert.False(t, ok)
}
