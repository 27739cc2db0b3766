package progress

import (
	"bytes"
	"sync"
	"testing"
)

type tick struct{ current, total int }

func TestNoneIsNoop(t *testing.T) {
	r := None()
	if r.Enabled() {
		t.Errorf("Expected absent reporter to be disabled")
	}
	// Must not panic
	r.Report(1, 2)

	if To(nil).Enabled() {
		t.Errorf("Expected reporter with nil sink to be disabled")
	}

	var zero Reporter
	if zero.Enabled() {
		t.Errorf("Expected zero reporter to be disabled")
	}
}

func TestToDeliversTicks(t *testing.T) {
	var got []tick
	r := To(func(c, n int) { got = append(got, tick{c, n}) })

	r.Report(0, 2)
	r.Report(2, 2)

	if len(got) != 2 || got[0] != (tick{0, 2}) || got[1] != (tick{2, 2}) {
		t.Errorf("Unexpected ticks: %v", got)
	}
}

func TestWrap(t *testing.T) {
	calls := 0
	if None().Wrap(func(int, int) { calls++ }).Enabled() {
		t.Errorf("Expected wrapping an absent reporter to stay absent")
	}

	var got []tick
	r := To(func(c, n int) { got = append(got, tick{c, n}) }).Wrap(func(int, int) { calls++ })
	r.Report(1, 1)

	if calls != 1 || len(got) != 1 {
		t.Errorf("Expected 1 hook call and 1 tick, got %d and %d", calls, len(got))
	}
}

// TestCounterConcurrent checks that concurrent steps produce a strictly
// increasing sequence ending at total
func TestCounterConcurrent(t *testing.T) {
	const total = 64
	var got []tick
	c := NewCounter(To(func(cur, n int) { got = append(got, tick{cur, n}) }), total)

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Step()
		}()
	}
	wg.Wait()
	c.Done()

	if len(got) != total+1 {
		t.Fatalf("Expected %d ticks, got %d", total+1, len(got))
	}
	for i, tk := range got {
		if tk.current != i || tk.total != total {
			t.Fatalf("Tick %d: expected (%d, %d), got (%d, %d)", i, i, total, tk.current, tk.total)
		}
	}
}

func TestCounterDoneCompletes(t *testing.T) {
	var got []tick
	c := NewCounter(To(func(cur, n int) { got = append(got, tick{cur, n}) }), 5)
	c.Step()
	c.Done()
	c.Done()

	last := got[len(got)-1]
	if last != (tick{5, 5}) {
		t.Errorf("Expected final tick (5, 5), got %v", last)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 ticks, got %d", len(got))
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	r := To(Printer(&buf))
	r.Report(0, 4)
	r.Report(4, 4)

	if buf.String() != "0/4\n4/4\n" {
		t.Errorf("Unexpected printer output %q", buf.String())
	}
}
