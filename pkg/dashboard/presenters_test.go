package dashboard

import (
	"errors"
	"testing"
	"time"
)

func TestCallbackPresenter(t *testing.T) {
	var got []RenderFrame
	p := NewCallbackPresenter("capture", func(f RenderFrame) error {
		got = append(got, f)
		return nil
	})

	if err := p.Present(RenderFrame{Timestamp: time.Now()}); err != nil {
		t.Fatalf("present: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(got))
	}
	if p.Name() != "capture" {
		t.Fatalf("unexpected name %q", p.Name())
	}
}

func TestCallbackPresenterNilHandler(t *testing.T) {
	p := NewCallbackPresenter("", nil)
	if err := p.Present(RenderFrame{}); err == nil {
		t.Fatal("expected error from nil handler")
	}
}

func TestChannelPresenterLatestWins(t *testing.T) {
	p, ch, closeFn := NewChannelPresenter("tui", 1)
	defer closeFn()

	// Nobody reading: the second frame must evict the first, not block.
	t1 := time.Unix(1, 0)
	t2 := time.Unix(2, 0)
	if err := p.Present(RenderFrame{Timestamp: t1}); err != nil {
		t.Fatalf("present 1: %v", err)
	}
	if err := p.Present(RenderFrame{Timestamp: t2}); err != nil {
		t.Fatalf("present 2: %v", err)
	}

	f := <-ch
	if !f.Timestamp.Equal(t2) {
		t.Fatalf("expected newest frame, got %v", f.Timestamp)
	}
}

func TestChannelPresenterClosed(t *testing.T) {
	p, _, closeFn := NewChannelPresenter("tui", 1)
	closeFn()
	closeFn() // idempotent

	// Every Present after close must report the error; none may reach the
	// closed channel and panic.
	for i := 0; i < 100; i++ {
		if err := p.Present(RenderFrame{}); !errors.Is(err, ErrPresenterClosed) {
			t.Fatalf("present %d: expected ErrPresenterClosed, got %v", i, err)
		}
	}
}

func TestChannelPresenterCloseDuringPresent(t *testing.T) {
	p, ch, closeFn := NewChannelPresenter("tui", 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := p.Present(RenderFrame{Timestamp: time.Now()}); err != nil {
				if !errors.Is(err, ErrPresenterClosed) {
					t.Errorf("expected ErrPresenterClosed, got %v", err)
				}
				return
			}
		}
	}()

	closeFn()
	<-done

	// The channel still drains and terminates consumer range loops.
	for range ch {
	}
}
