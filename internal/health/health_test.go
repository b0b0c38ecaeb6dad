package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChecker_Run(t *testing.T) {
	var c Checker
	c.Timeout = 50 * time.Millisecond
	c.Add("ok", func(ctx context.Context) error { return nil })
	c.Add("broken", func(ctx context.Context) error { return errors.New("down") })
	c.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	results := c.Run(context.Background())
	if len(results) != 3 {
		t.Fatalf("len = %d, want 3", len(results))
	}
	want := []struct {
		name string
		ok   bool
	}{{"ok", true}, {"broken", false}, {"slow", false}}
	for i, w := range want {
		if results[i].Name != w.name || results[i].OK() != w.ok {
			t.Errorf("result %d = %+v, want %s ok=%v", i, results[i], w.name, w.ok)
		}
	}
	if !errors.Is(results[2].Err, context.DeadlineExceeded) {
		t.Errorf("slow probe err = %v, want deadline exceeded", results[2].Err)
	}
	if Healthy(results) {
		t.Error("Healthy should be false")
	}
	if !Healthy(results[:1]) || !Healthy(nil) {
		t.Error("Healthy should be true for passing results")
	}
}
