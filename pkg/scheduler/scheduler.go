package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work
type Job interface {
	Run(ctx context.Context)
}

// FuncJob adapts a plain function to the Job interface
type FuncJob func(ctx context.Context)

// Run implements Job
func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Cron wraps robfig/cron with panic recovery and a shared base context
type Cron struct {
	c   *cron.Cron
	ctx context.Context
}

// NewCron creates a cron scheduler in the given location
func NewCron(ctx context.Context, loc *time.Location) *Cron {
	if loc == nil {
		loc = time.Local
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Cron{c: c, ctx: ctx}
}

// Start begins running scheduled jobs
func (cr *Cron) Start() { cr.c.Start() }

// Stop stops the scheduler and waits for running jobs to finish
func (cr *Cron) Stop() {
	ctx := cr.c.Stop()
	<-ctx.Done()
}

// Add schedules a job with a cron expression ("@every 1m", "0 3 * * *", ...)
func (cr *Cron) Add(expr string, job Job) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, func() { job.Run(cr.ctx) })
}

// Entries returns the scheduled entries
func (cr *Cron) Entries() []cron.Entry { return cr.c.Entries() }
