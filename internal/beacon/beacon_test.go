package beacon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/chatwave/internal/gateway/gatewaytest"
	"github.com/matheus3301/chatwave/internal/model"
)

func TestBeaconMarksOffline(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddProfile(model.Profile{ID: "p1", Username: "alice", Online: true})

	path := filepath.Join(t.TempDir(), "beacon.sock")
	l, err := Listen("unixgram", path, fake, nil)
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- l.Serve(context.Background()) }()

	NewSender("unixgram", path, nil).Send("p1", false)

	deadline := time.Now().Add(2 * time.Second)
	for {
		p, _ := fake.Profile("p1")
		if !p.Online {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("beacon was not applied")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v after Close", err)
	}
}

func TestSendWithoutListenerReturnsQuickly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nobody.sock")
	start := time.Now()
	NewSender("unixgram", path, nil).Send("p1", false)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Send blocked for %v", elapsed)
	}
}

func TestNilSenderIsNoop(t *testing.T) {
	var s *Sender
	s.Send("p1", false)
	NewSender("unixgram", "", nil).Send("p1", false)
}
