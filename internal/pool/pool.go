// Package pool runs named, recurring tasks on a fixed number of goroutines,
// earliest deadline first.
package pool

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Pool executes tasks in order of their deadlines. A task's function
// returns its next deadline; the zero time removes it from the pool. Adding
// or triggering a task wakes a waiting worker so that it runs right away.
//
// Workers stop when the context given to New is done.
type Pool struct {
	mu    sync.Mutex
	queue []*task
	reg   map[string]*task
	wait  chan struct{}
	idle  sync.Cond // signalled when reg becomes empty
}

type task struct {
	name     string
	fn       func(context.Context) time.Time
	deadline time.Time
	rerun    bool
}

func New(ctx context.Context, workers int) *Pool {
	p := &Pool{reg: make(map[string]*task)}
	p.idle.L = &p.mu

	for range max(workers, 1) {
		go p.work(ctx)
	}

	return p
}

// Add schedules fn under name to run as soon as a worker is free.
func (p *Pool) Add(name string, fn func(context.Context) time.Time) {
	p.enqueue(&task{name: name, fn: fn, deadline: time.Now()})
}

func (p *Pool) work(ctx context.Context) {
	for {
		t, ok := p.dequeue(ctx)
		if !ok {
			return
		}
		p.enqueue(t.execute(ctx))
	}
}

// Trigger runs the named task now. A queued task is moved to the front of
// the queue; a running task runs again as soon as it is done.
func (p *Pool) Trigger(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := slices.IndexFunc(p.queue, func(t *task) bool { return t.name == name }); i != -1 {
		p.queue[i].deadline = time.Now()
		p.sortAndWake()
		return nil
	}
	if t, ok := p.reg[name]; ok {
		t.rerun = true
		return nil
	}

	return fmt.Errorf("no task with name %s", name)
}

// Wait blocks until every task has removed itself from the pool.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.reg) > 0 {
		p.idle.Wait()
	}
}

// sortAndWake must be called with p.mu held.
func (p *Pool) sortAndWake() {
	slices.SortFunc(p.queue, func(a, b *task) int {
		return a.deadline.Compare(b.deadline)
	})

	if p.wait != nil {
		close(p.wait)
		p.wait = nil
	}
}

func (p *Pool) enqueue(t *task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.deadline.IsZero() {
		delete(p.reg, t.name)
		if len(p.reg) == 0 {
			p.idle.Broadcast()
		}
		return
	}

	p.reg[t.name] = t
	p.queue = append(p.queue, t)
	p.sortAndWake()
}

func (p *Pool) dequeue(ctx context.Context) (*task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return nil, false
		}

		wait := time.Hour
		if len(p.queue) > 0 {
			wait = time.Until(p.queue[0].deadline)
			if wait <= 0 {
				break
			}
		}

		if p.wait == nil {
			p.wait = make(chan struct{})
		}
		ch := p.wait

		p.mu.Unlock()
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ch:
		case <-ctx.Done():
		}
		timer.Stop()
		p.mu.Lock()
	}

	var t *task
	t, p.queue = p.queue[0], p.queue[1:]
	return t, true
}

func (t *task) execute(ctx context.Context) *task {
	t.deadline = t.fn(ctx)
	if t.rerun && !t.deadline.IsZero() {
		t.rerun = false
		t.deadline = time.Now()
	}
	return t
}
