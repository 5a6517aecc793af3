package pool

import (
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestBatch_SquaresInSubmissionOrder(t *testing.T) {
	p := newTestPool(t, 2)
	b := NewBatch[int](p, 4)

	for i := range 4 {
		err := b.Submit(func() (int, error) {
			if i%2 == 0 {
				time.Sleep(30 * time.Millisecond)
			}
			return i * i, nil
		})
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}

	got, err := b.CollectAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []int{0, 1, 4, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBatch_OrderIndependentOfCompletion(t *testing.T) {
	const n = 20
	p := newTestPool(t, n)
	b := NewBatch[int](p, n)

	// earlier tasks take longer, so they finish last
	for i := range n {
		_ = b.Submit(func() (int, error) {
			time.Sleep(time.Duration(n-i) * time.Millisecond)
			return i, nil
		})
	}

	got, err := b.CollectAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("position %d holds %d", i, v)
		}
	}
}

func TestBatch_CollectEmpty(t *testing.T) {
	p := newTestPool(t, 1)
	b := NewBatch[string](p, 0)

	got, err := b.CollectAll()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestBatch_SecondCollectIsEmpty(t *testing.T) {
	p := newTestPool(t, 2)
	b := NewBatch[int](p, 2)

	_ = b.Submit(func() (int, error) { return 1, nil })
	_ = b.Submit(func() (int, error) { return 2, nil })

	if got, _ := b.CollectAll(); len(got) != 2 {
		t.Fatalf("expected 2 results, got %v", got)
	}
	if b.Pending() != 0 {
		t.Errorf("expected nothing pending, got %d", b.Pending())
	}
	got, err := b.CollectAll()
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty second collection, got %v, %v", got, err)
	}

	// the batch is reusable
	_ = b.Submit(func() (int, error) { return 3, nil })
	got, _ = b.CollectAll()
	if !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("expected [3], got %v", got)
	}
}

func TestBatch_FailurePolicy(t *testing.T) {
	boomA := errors.New("a")
	boomB := errors.New("b")

	tests := []struct {
		name      string
		fns       []func() (int, error)
		wantVals  []int
		wantIndex int
		wantErr   error
	}{
		{
			name: "all succeed",
			fns: []func() (int, error){
				func() (int, error) { return 1, nil },
				func() (int, error) { return 2, nil },
			},
			wantVals:  []int{1, 2},
			wantIndex: -1,
		},
		{
			name: "one failure",
			fns: []func() (int, error){
				func() (int, error) { return 1, nil },
				func() (int, error) { return 0, boomA },
				func() (int, error) { return 3, nil },
			},
			wantVals:  []int{1, 0, 3},
			wantIndex: 1,
			wantErr:   boomA,
		},
		{
			name: "first failure in submission order wins",
			fns: []func() (int, error){
				func() (int, error) { time.Sleep(20 * time.Millisecond); return 0, boomA },
				func() (int, error) { return 0, boomB },
				func() (int, error) { return 3, nil },
			},
			wantVals:  []int{0, 0, 3},
			wantIndex: 0,
			wantErr:   boomA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPool(t, 3)
			b := NewBatch[int](p, len(tt.fns))
			for _, fn := range tt.fns {
				if err := b.Submit(fn); err != nil {
					t.Fatalf("submit failed: %v", err)
				}
			}

			got, err := b.CollectAll()
			if !reflect.DeepEqual(got, tt.wantVals) {
				t.Errorf("expected values %v, got %v", tt.wantVals, got)
			}
			if b.Pending() != 0 {
				t.Errorf("buffer must be cleared, %d pending", b.Pending())
			}

			if tt.wantIndex < 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			var taskErr *TaskError
			if !errors.As(err, &taskErr) {
				t.Fatalf("expected *TaskError, got %T (%v)", err, err)
			}
			if taskErr.Index != tt.wantIndex {
				t.Errorf("expected failing index %d, got %d", tt.wantIndex, taskErr.Index)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBatch_FailureWaitsForEveryTask(t *testing.T) {
	p := newTestPool(t, 2)
	b := NewBatch[int](p, 3)

	var finished atomic.Int32
	_ = b.Submit(func() (int, error) {
		finished.Add(1)
		return 0, errors.New("early failure")
	})
	for range 2 {
		_ = b.Submit(func() (int, error) {
			time.Sleep(20 * time.Millisecond)
			finished.Add(1)
			return 1, nil
		})
	}

	if _, err := b.CollectAll(); err == nil {
		t.Fatal("expected an error")
	}
	if finished.Load() != 3 {
		t.Errorf("CollectAll returned before every task finished (%d of 3)", finished.Load())
	}
}

func TestBatch_CollectResults(t *testing.T) {
	p := newTestPool(t, 2)
	b := NewBatch[string](p, 3)
	boom := errors.New("boom")

	_ = b.Submit(func() (string, error) { return "a", nil })
	_ = b.Submit(func() (string, error) { return "", boom })
	_ = b.Submit(func() (string, error) { return "c", nil })

	results := b.CollectResults()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
	}
	if results[0].Value != "a" || results[2].Value != "c" {
		t.Errorf("unexpected values: %+v", results)
	}
	if !errors.Is(results[1].Error, boom) {
		t.Errorf("expected boom at index 1, got %v", results[1].Error)
	}
}

func TestBatch_SubmitDuringCollect(t *testing.T) {
	p := newTestPool(t, 2)
	b := NewBatch[int](p, 2)
	g := newGate()

	_ = b.Submit(func() (int, error) {
		g.wait()
		return 1, nil
	})

	type collected struct {
		vals []int
		err  error
	}
	first := make(chan collected, 1)
	go func() {
		vals, err := b.CollectAll()
		first <- collected{vals, err}
	}()

	// the collector detaches the buffer before it waits
	waitFor(t, time.Second, func() bool { return b.Pending() == 0 })

	if err := b.Submit(func() (int, error) { return 2, nil }); err != nil {
		t.Fatalf("submit during collect failed: %v", err)
	}
	if b.Pending() != 1 {
		t.Errorf("expected the new task to be buffered, got %d pending", b.Pending())
	}

	g.open()
	res := <-first
	if res.err != nil || !reflect.DeepEqual(res.vals, []int{1}) {
		t.Errorf("first collection: got %v, %v", res.vals, res.err)
	}

	vals, err := b.CollectAll()
	if err != nil || !reflect.DeepEqual(vals, []int{2}) {
		t.Errorf("second collection: got %v, %v", vals, err)
	}
}

func TestBatch_TaskSubmitsToItsOwnBatch(t *testing.T) {
	p := newTestPool(t, 2)
	b := NewBatch[int](p, 2)
	g := newGate()

	inner := make(chan error, 1)
	_ = b.Submit(func() (int, error) {
		g.wait()
		inner <- b.Submit(func() (int, error) { return 2, nil })
		return 1, nil
	})

	type collected struct {
		vals []int
		err  error
	}
	first := make(chan collected, 1)
	go func() {
		vals, err := b.CollectAll()
		first <- collected{vals, err}
	}()
	waitFor(t, time.Second, func() bool { return b.Pending() == 0 })
	g.open()

	res := <-first
	if res.err != nil || !reflect.DeepEqual(res.vals, []int{1}) {
		t.Fatalf("got %v, %v", res.vals, res.err)
	}
	if err := <-inner; err != nil {
		t.Fatalf("nested submit failed: %v", err)
	}

	vals, err := b.CollectAll()
	if err != nil || !reflect.DeepEqual(vals, []int{2}) {
		t.Errorf("nested task should be collected next, got %v, %v", vals, err)
	}
}

func TestBatch_Pending(t *testing.T) {
	p := newTestPool(t, 1)
	b := NewBatch[int](p, 0)

	for i := range 5 {
		_ = b.Submit(func() (int, error) { return i, nil })
		if b.Pending() != i+1 {
			t.Errorf("expected %d pending, got %d", i+1, b.Pending())
		}
	}
	_, _ = b.CollectAll()
}

func TestBatch_ClosedPool(t *testing.T) {
	p, err := New(1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_ = p.Close()

	b := NewBatch[int](p, 1)
	if err := b.Submit(func() (int, error) { return 1, nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
	if b.Pending() != 0 {
		t.Error("rejected submission must not be buffered")
	}

	vb := NewVoidBatch(p, 1)
	if err := vb.Submit(func() error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestBatch_OutlivesShutdown(t *testing.T) {
	p, err := New(2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b := NewBatch[int](p, 3)
	for i := range 3 {
		_ = b.Submit(func() (int, error) { return i + 10, nil })
	}

	// drained work is still collectable after shutdown
	if err := p.Shutdown(0); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	vals, err := b.CollectAll()
	if err != nil || !reflect.DeepEqual(vals, []int{10, 11, 12}) {
		t.Errorf("got %v, %v", vals, err)
	}
}

func TestVoidBatch(t *testing.T) {
	p := newTestPool(t, 3)
	boom := errors.New("boom")

	t.Run("all succeed", func(t *testing.T) {
		vb := NewVoidBatch(p, 10)
		var count atomic.Int32
		for range 10 {
			_ = vb.Submit(func() error {
				count.Add(1)
				return nil
			})
		}
		if vb.Pending() != 10 {
			t.Errorf("expected 10 pending, got %d", vb.Pending())
		}
		if err := vb.CollectAll(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if count.Load() != 10 {
			t.Errorf("expected 10 runs, got %d", count.Load())
		}
	})

	t.Run("failure is reported", func(t *testing.T) {
		vb := NewVoidBatch(p, 3)
		_ = vb.Submit(func() error { return nil })
		_ = vb.Submit(func() error { return boom })
		_ = vb.Submit(func() error { return nil })

		err := vb.CollectAll()
		var taskErr *TaskError
		if !errors.As(err, &taskErr) || taskErr.Index != 1 {
			t.Fatalf("expected TaskError at index 1, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected boom in chain, got %v", err)
		}
		if vb.Pending() != 0 {
			t.Errorf("buffer must be cleared, %d pending", vb.Pending())
		}
	})
}
