package scheduler

import (
	"context"
	"time"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Handle 一次性任务的取消句柄
type Handle interface {
	Cancel()
}

// Delayer schedules a one-shot job after a delay. The escalation flow
// depends on this interface so tests can fire timers deterministically
// instead of waiting wall-clock minutes.
type Delayer interface {
	OnceAfter(d time.Duration, job Job) Handle
}

type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

func (s *Scheduler) Stop() { s.cancel() }

// OnceAfter runs job once after d. The returned handle cancels the job if
// it has not fired yet; cancelling after the fire is a no-op.
func (s *Scheduler) OnceAfter(d time.Duration, job Job) Handle {
	ctx, cancel := context.WithCancel(s.ctx)
	go func() {
		defer cancel()
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
			job.Run(s.ctx)
		}
	}()
	return handleFunc(cancel)
}

type handleFunc func()

func (h handleFunc) Cancel() { h() }
