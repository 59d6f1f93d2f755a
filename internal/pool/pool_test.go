package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type run struct {
	left     int
	ran      atomic.Int32
	sleep    time.Duration
	deadline time.Duration
}

func (r *run) Execute(context.Context) time.Time {
	if r.left > 0 {
		time.Sleep(r.sleep)
		r.left--
		r.ran.Add(1)
		return time.Now().Add(r.deadline)
	}

	var zero time.Time
	return zero // remove task
}

func TestPool(t *testing.T) {
	p := New(t.Context(), 2)

	a := &run{left: 2, deadline: 20 * time.Millisecond}
	b := &run{left: 1}
	c := &run{left: 3, deadline: 10 * time.Millisecond}
	p.Add("a", a.Execute)
	p.Add("b", b.Execute)
	p.Add("c", c.Execute)

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not finish")
	}

	for _, tc := range []struct {
		note string
		r    *run
		exp  int32
	}{
		{"a", a, 2},
		{"b", b, 1},
		{"c", c, 3},
	} {
		if exp, act := tc.exp, tc.r.ran.Load(); exp != act {
			t.Errorf("%s: expected %d runs, got %d", tc.note, exp, act)
		}
	}
}

func TestTrigger(t *testing.T) {
	t.Run("trigger pulls queued task up front", func(t *testing.T) {
		p := New(t.Context(), 2)

		rx := &run{left: 3, deadline: time.Hour}

		p.Add("t", rx.Execute) // run #1, then queued for an hour
		time.Sleep(50 * time.Millisecond)
		_ = p.Trigger("t") // run #2
		time.Sleep(50 * time.Millisecond)
		_ = p.Trigger("t") // run #3
		time.Sleep(50 * time.Millisecond)

		if exp, act := int32(3), rx.ran.Load(); exp != act {
			t.Errorf("expected counter of %d, got %d", exp, act)
		}
	})

	t.Run("trigger reruns executing task right away", func(t *testing.T) {
		p := New(t.Context(), 2)

		// without the trigger there would be no second run: the next deadline is an hour away
		rx := &run{left: 3, sleep: 100 * time.Millisecond, deadline: time.Hour}

		p.Add("t", rx.Execute)
		time.Sleep(50 * time.Millisecond)
		_ = p.Trigger("t") // run #2 after run #1 is done

		time.Sleep(300 * time.Millisecond)

		if exp, act := int32(2), rx.ran.Load(); exp != act {
			t.Errorf("expected counter of %d, got %d", exp, act)
		}
	})

	t.Run("unknown task", func(t *testing.T) {
		p := New(t.Context(), 1)
		if err := p.Trigger("nope"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	p := New(ctx, 1)

	rx := &run{left: 100, deadline: 10 * time.Millisecond}
	p.Add("t", rx.Execute)
	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)

	n := rx.ran.Load()
	time.Sleep(50 * time.Millisecond)
	if act := rx.ran.Load(); act != n {
		t.Fatalf("expected no runs after cancel, got %d more", act-n)
	}
}
