package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"plugin-endpoints/internal/manager"
	"plugin-endpoints/internal/scheduler"

	"github.com/stretchr/testify/assert"
)

func TestSweeperRunsOnSchedule(t *testing.T) {
	var runs atomic.Int32
	s := scheduler.NewSweeper()
	err := s.Start("@every 1s", func() (manager.SweepResult, error) {
		runs.Add(1)
		return manager.SweepResult{}, nil
	})
	assert.NoError(t, err)
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond, "sweep should run at least once")
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	s := scheduler.NewSweeper()
	err := s.Start("every now and then", func() (manager.SweepResult, error) {
		return manager.SweepResult{}, nil
	})
	assert.Error(t, err)
	s.Stop()
}

func TestSweeperDisabled(t *testing.T) {
	s := scheduler.NewSweeper()
	assert.NoError(t, s.Start("", nil))
	s.Stop()
}
