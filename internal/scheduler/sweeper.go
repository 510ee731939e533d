package scheduler

import (
	"fmt"
	"sync"

	"plugin-endpoints/internal/manager"
	"plugin-endpoints/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SweepFunc 一次保留期清理
type SweepFunc func() (manager.SweepResult, error)

// Sweeper 按 cron 表达式定时执行归档清理, 与请求内的清理互不影响 (清理本身幂等)
type Sweeper struct {
	mu   sync.Mutex
	cron *cron.Cron
	log  zerolog.Logger
}

func NewSweeper() *Sweeper {
	return &Sweeper{log: logger.Component("scheduler")}
}

// Start schedule 为空时不启动
func (s *Sweeper) Start(schedule string, sweep SweepFunc) error {
	if schedule == "" {
		s.log.Info().Msg("periodic sweep disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		result, err := sweep()
		if err != nil {
			s.log.Error().Err(err).Msg("periodic sweep failed")
			return
		}
		s.log.Debug().Int("deleted", len(result.Deleted)).Int("skipped", len(result.Skipped)).Msg("periodic sweep")
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	s.log.Info().Str("schedule", schedule).Msg("periodic sweep started")
	return nil
}

// Stop 等待正在执行的清理结束
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}
