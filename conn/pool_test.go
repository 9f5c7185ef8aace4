package conn

import (
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

// fakeDialer hands out pipe-backed connections and counts dials. The
// far ends are kept so the test can close them.
type fakeDialer struct {
	dials atomic.Int32
	fail  atomic.Bool
}

func (d *fakeDialer) dial() (*Conn, error) {
	d.dials.Add(1)
	if d.fail.Load() {
		return nil, errors.New("dial refused")
	}
	client, server := net.Pipe()
	go func() {
		// Keep the far end open until the pool closes ours.
		buf := make([]byte, 64)
		for {
			if _, err := server.Read(buf); err != nil {
				server.Close()
				return
			}
		}
	}()
	return New(client, time.Second, time.Second), nil
}

func newTestPool(t *testing.T, size int) (*Pool, *fakeDialer) {
	t.Helper()
	p, err := NewPool("test:7979", size, Options{AcquireTimeout: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	d := &fakeDialer{}
	p.dial = d.dial
	t.Cleanup(func() { p.Close() })
	return p, d
}

func TestPoolRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewPool("test:7979", 0, Options{}, nil); err == nil {
		t.Fatal("expected error for zero pool size")
	}
}

func TestPoolReusesConnection(t *testing.T) {
	p, d := newTestPool(t, 1)

	for i := 0; i < 3; i++ {
		if ok := p.Consume(func(*Conn) error { return nil }); !ok {
			t.Fatalf("Consume %d failed", i)
		}
	}
	if got := d.dials.Load(); got != 1 {
		t.Errorf("dials = %d, want 1 (healthy connection must be reused)", got)
	}
}

func TestPoolDiscardsBrokenConnection(t *testing.T) {
	p, d := newTestPool(t, 1)

	if ok := p.Consume(func(*Conn) error { return errors.New("broken") }); !ok {
		t.Fatal("first Consume failed")
	}
	if ok := p.Consume(func(*Conn) error { return nil }); !ok {
		t.Fatal("second Consume failed")
	}
	if got := d.dials.Load(); got != 2 {
		t.Errorf("dials = %d, want 2 (broken connection must be replaced)", got)
	}
}

func TestPoolExhaustion(t *testing.T) {
	p, _ := newTestPool(t, 1)

	holding := make(chan struct{})
	releaseNow := make(chan struct{})
	go p.Consume(func(*Conn) error {
		close(holding)
		<-releaseNow
		return nil
	})
	<-holding

	if ok := p.Consume(func(*Conn) error { return nil }); ok {
		t.Error("Consume succeeded while the only slot was held")
	}
	close(releaseNow)
}

func TestPoolDialFailureFreesSlot(t *testing.T) {
	p, d := newTestPool(t, 1)

	d.fail.Store(true)
	if ok := p.Consume(func(*Conn) error { return nil }); ok {
		t.Fatal("Consume succeeded despite dial failure")
	}

	// The slot must be usable again once dialing recovers.
	d.fail.Store(false)
	if ok := p.Consume(func(*Conn) error { return nil }); !ok {
		t.Fatal("Consume failed after dial recovered")
	}
}

func TestPoolClosedConsumeFails(t *testing.T) {
	p, _ := newTestPool(t, 1)
	p.Close()
	p.Close() // idempotent

	if ok := p.Consume(func(*Conn) error { return nil }); ok {
		t.Fatal("Consume succeeded on a closed pool")
	}
}

func TestPoolConsumeDelayed(t *testing.T) {
	p, d := newTestPool(t, 1)

	var release Release
	ok := p.ConsumeDelayed(func(_ *Conn, r Release) {
		release = r
	})
	if !ok {
		t.Fatal("ConsumeDelayed failed")
	}

	// The slot stays checked out until release.
	if ok := p.Consume(func(*Conn) error { return nil }); ok {
		t.Fatal("slot was handed out while still checked out")
	}

	release(nil)
	release(nil) // double release must be harmless
	if ok := p.Consume(func(*Conn) error { return nil }); !ok {
		t.Fatal("Consume failed after release")
	}
	if got := d.dials.Load(); got != 1 {
		t.Errorf("dials = %d, want 1", got)
	}
}

func TestPoolReleaseWithErrorDiscards(t *testing.T) {
	p, d := newTestPool(t, 1)

	ok := p.ConsumeDelayed(func(_ *Conn, r Release) {
		r(errors.New("stream broke"))
	})
	if !ok {
		t.Fatal("ConsumeDelayed failed")
	}

	if ok := p.Consume(func(*Conn) error { return nil }); !ok {
		t.Fatal("Consume failed after discard")
	}
	if got := d.dials.Load(); got != 2 {
		t.Errorf("dials = %d, want 2 (errored release must discard)", got)
	}
}
