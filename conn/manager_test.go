package conn

import (
	"errors"
	"testing"
)

func TestOnDemandDialsPerConsume(t *testing.T) {
	m := NewOnDemand("test:7979", Options{}, nil)
	d := &fakeDialer{}
	m.dial = func() (*Conn, error) { return d.dial() }

	for i := 0; i < 3; i++ {
		ran := false
		if ok := m.Consume(func(*Conn) error { ran = true; return nil }); !ok {
			t.Fatalf("Consume %d failed", i)
		}
		if !ran {
			t.Fatalf("work did not run on consume %d", i)
		}
	}
	if got := d.dials.Load(); got != 3 {
		t.Errorf("dials = %d, want 3 (one per consume)", got)
	}
}

func TestOnDemandDialFailure(t *testing.T) {
	m := NewOnDemand("test:7979", Options{}, nil)
	m.dial = func() (*Conn, error) { return nil, errors.New("dial refused") }

	if ok := m.Consume(func(*Conn) error { return nil }); ok {
		t.Fatal("Consume succeeded despite dial failure")
	}
}

func TestOnDemandClosedConsumeFails(t *testing.T) {
	m := NewOnDemand("test:7979", Options{}, nil)
	d := &fakeDialer{}
	m.dial = func() (*Conn, error) { return d.dial() }

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ok := m.Consume(func(*Conn) error { return nil }); ok {
		t.Fatal("Consume succeeded on a closed manager")
	}
	if got := d.dials.Load(); got != 0 {
		t.Errorf("dials = %d, want 0", got)
	}
}

func TestOnDemandConsumeDelayed(t *testing.T) {
	m := NewOnDemand("test:7979", Options{}, nil)
	d := &fakeDialer{}
	m.dial = func() (*Conn, error) { return d.dial() }

	var held *Conn
	var release Release
	ok := m.ConsumeDelayed(func(c *Conn, r Release) {
		held = c
		release = r
	})
	if !ok {
		t.Fatal("ConsumeDelayed failed")
	}
	if held == nil {
		t.Fatal("no connection handed to work")
	}
	release(nil)

	// The connection is closed once released.
	if err := held.Send(MsgPing, nil); err == nil {
		t.Error("Send succeeded on a released on-demand connection")
	}
}
