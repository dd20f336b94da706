// Package jobs runs the background schedules: auto-completing deals whose
// security window elapsed and keeping exchange rates warm.
package jobs

import (
	"context"
	"log"
	"time"

	"blizz/internal/services/currency"
	"blizz/internal/services/transaction"

	"github.com/robfig/cron/v3"
)

const autoCompleteBatch = 100

// ratePairs are warmed hourly so conversions rarely hit the external API
// on the request path.
var ratePairs = [][2]string{
	{"EUR", "USD"},
	{"EUR", "GBP"},
	{"EUR", "NGN"},
	{"EUR", "GHS"},
	{"EUR", "MAD"},
	{"EUR", "KES"},
}

type Scheduler struct {
	cron      *cron.Cron
	txService *transaction.Service
	rates     *currency.Service
}

func NewScheduler(txService *transaction.Service, rates *currency.Service) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		txService: txService,
		rates:     rates,
	}
}

// Start registers the schedules and launches the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("*/10 * * * *", s.runAutoComplete); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.refreshRates); err != nil {
		return err
	}
	s.cron.Start()
	log.Println("jobs: scheduler started")
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runAutoComplete() {
	done, err := s.txService.AutoComplete(time.Now(), autoCompleteBatch)
	if err != nil {
		log.Printf("jobs: auto-complete sweep failed: %v", err)
		return
	}
	if done > 0 {
		log.Printf("jobs: auto-completed %d transactions", done)
	}
}

func (s *Scheduler) refreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, pair := range ratePairs {
		s.rates.Rate(ctx, pair[0], pair[1])
	}
}
