package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"sede/config"
	"sede/engine"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

// Scheduler re-runs saved searches on a cron expression or fixed interval.
type Scheduler struct {
	cfg         *config.Config
	integration *engine.Integration
	cron        *cron.Cron
	ticker      *time.Ticker
	stopCh      chan struct{}

	enrichmentWorker Triggerable
}

func New(cfg *config.Config, integration *engine.Integration) *Scheduler {
	return &Scheduler{
		cfg:         cfg,
		integration: integration,
		cron:        cron.New(),
		stopCh:      make(chan struct{}),
	}
}

// SetWorkers registers background workers for manual triggering
func (s *Scheduler) SetWorkers(enrichment Triggerable) {
	s.enrichmentWorker = enrichment
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			if err := s.integration.RunSavedSearches(ctx); err != nil {
				log.Printf("Scheduled run error: %v", err)
			}
			s.triggerEnrichment()
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					if err := s.integration.RunSavedSearches(ctx); err != nil {
						log.Printf("Scheduled run error: %v", err)
					}
					s.triggerEnrichment()
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon will only respond to manual triggers")
	}

	return nil
}

func (s *Scheduler) triggerEnrichment() {
	if s.enrichmentWorker != nil {
		s.enrichmentWorker.Trigger()
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

// TriggerNow runs every active saved search immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	return s.integration.RunSavedSearches(ctx)
}
