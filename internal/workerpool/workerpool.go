// Package workerpool provides the fixed-size tomb.v2-supervised worker pool
// the TCP transport uses to bound how many client connections are serviced
// concurrently, adapted from the teacher's internal worker pool.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

// WorkerFunc processes a single queued task. A non-nil return kills the
// worker (and, via tomb, the whole supervised group).
type WorkerFunc = func(t *tomb.Tomb, task any) error

// Pool is a fixed-size pool of workers pulling from a shared task channel.
type Pool struct {
	n     int
	tasks chan any
}

func New(size int) *Pool {
	return &Pool{
		n:     size,
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues task for the next free worker.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Run starts n workers supervised by t, each executing work against tasks
// pulled from the shared channel until t starts dying.
func (p *Pool) Run(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			return p.worker(t, work)
		})
	}
}

func (p *Pool) worker(t *tomb.Tomb, work WorkerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker exiting")
				return err
			}
		}
	}
}
