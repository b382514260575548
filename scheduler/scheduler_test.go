package scheduler

import (
	"context"
	"testing"
	"time"

	"sede/config"
	"sede/crawler"
	"sede/engine"
)

func newTestScheduler(t *testing.T, schedCfg config.SchedulerConfig) *Scheduler {
	t.Helper()

	cfg := &config.Config{
		Crawler: config.CrawlerConfig{
			MaxWorkers:   1,
			RetryTimes:   1,
			FetchTimeout: time.Second,
		},
		Scheduler: schedCfg,
	}

	chatbot := engine.NewChatbot(0.5)
	orchestrator := crawler.NewOrchestrator(cfg)
	t.Cleanup(orchestrator.Close)

	return New(cfg, engine.NewIntegration(chatbot, orchestrator))
}

func TestStart_InvalidCron(t *testing.T) {
	s := newTestScheduler(t, config.SchedulerConfig{Cron: "not a cron"})

	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected error for invalid cron expression")
	}
}

func TestStartStop_Interval(t *testing.T) {
	s := newTestScheduler(t, config.SchedulerConfig{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
}

func TestStartStop_NoSchedule(t *testing.T) {
	s := newTestScheduler(t, config.SchedulerConfig{})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
}
