package logging

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/psaab/cmdgraph/pkg/compiler"
	"github.com/psaab/cmdgraph/pkg/graph"
)

func TestEventBuffer_Wraps(t *testing.T) {
	eb := NewEventBuffer(3)
	for i := 1; i <= 5; i++ {
		eb.Add(EventRecord{Command: fmt.Sprintf("cmd%d", i), Outcome: "compiled"})
	}

	got := eb.Latest(10)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, want := range []string{"cmd5", "cmd4", "cmd3"} {
		if got[i].Command != want {
			t.Errorf("event %d: got %q, want %q", i, got[i].Command, want)
		}
	}
	if got[0].Seq != 5 {
		t.Errorf("newest event seq = %d, want 5", got[0].Seq)
	}
	if n := eb.Totals()["compiled"]; n != 5 {
		t.Errorf("totals should not wrap, got %d", n)
	}
	if eb.Latest(0) != nil {
		t.Error("Latest(0) should be nil")
	}
}

func TestEventBuffer_Observer(t *testing.T) {
	eb := NewEventBuffer(16)
	c := compiler.New(graph.NewStore(), compiler.Options{Observer: eb})

	c.Compile("show version", "v")
	c.Compile("show version", "v2")
	c.Compile("show [", "bad")

	totals := eb.Totals()
	if totals["compiled"] != 1 || totals["duplicate"] != 1 || totals["syntax"] != 1 {
		t.Errorf("unexpected totals: %v", totals)
	}

	failed := eb.LatestFailed(10)
	if len(failed) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failed))
	}
	if failed[0].Outcome != "syntax" || failed[1].Outcome != "duplicate" {
		t.Errorf("unexpected failure order: %+v", failed)
	}
	if failed[1].Command != "show version" || failed[1].Error == "" {
		t.Errorf("failure should carry command and message: %+v", failed[1])
	}
}

func TestEventBuffer_Subscribe(t *testing.T) {
	eb := NewEventBuffer(4)
	sub := eb.Subscribe(2)

	eb.Compiled("show clock", nil)
	select {
	case rec := <-sub.C:
		if rec.Command != "show clock" || rec.Outcome != "compiled" {
			t.Errorf("unexpected event: %+v", rec)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	sub.Close()
	eb.Compiled("show date", errors.New("boom"))
	select {
	case rec := <-sub.C:
		t.Errorf("closed subscription received %+v", rec)
	default:
	}
}

func TestEventBuffer_SlowSubscriber(t *testing.T) {
	eb := NewEventBuffer(8)
	sub := eb.Subscribe(1)
	defer sub.Close()

	eb.Compiled("a", nil)
	eb.Compiled("b", nil)
	if len(sub.C) != 1 {
		t.Errorf("slow subscriber should hold only its buffer, has %d", len(sub.C))
	}
	if len(eb.Latest(8)) != 2 {
		t.Error("buffer should keep events a slow subscriber missed")
	}
}
