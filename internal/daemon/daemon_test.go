package daemon

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matheus3301/chatwave/internal/beacon"
	"github.com/matheus3301/chatwave/internal/gateway"
	"github.com/matheus3301/chatwave/internal/instance"
	"github.com/matheus3301/chatwave/internal/lock"
	"go.uber.org/fx"
)

// shortHome points CHATWAVE_HOME at a short /tmp path; Unix socket paths
// are limited to about 104 bytes on macOS.
func shortHome(t *testing.T) {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "cw-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv(instance.HomeEnv, dir)
}

func startApp(t *testing.T, p Params) *fx.App {
	t.Helper()
	app := fx.New(Module(p), fx.NopLogger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("app.Start: %v", err)
	}
	return app
}

func stopApp(t *testing.T, app *fx.App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		t.Errorf("app.Stop: %v", err)
	}
}

func TestDaemonLifecycle(t *testing.T) {
	shortHome(t)
	app := startApp(t, Params{Instance: "t"})

	c, err := gateway.Dial(instance.SocketPath("t"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Probe(ctx); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	p, err := c.InsertProfile(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Instance != "t" || stats.Profiles != 1 {
		t.Errorf("Stats = %+v, want instance t with 1 profile", stats)
	}

	// Presence over the beacon socket reaches the store.
	beacon.NewSender("unixgram", instance.BeaconPath("t"), nil).Send(p.ID, true)
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := c.QueryProfile(ctx, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Online {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("beacon did not mark profile online")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if owner, ok := lock.Holder(instance.Dir("t")); !ok || owner.PID != os.Getpid() || owner.Program != Program {
		t.Errorf("lock holder = %+v, want %s pid %d", owner, Program, os.Getpid())
	}

	stopApp(t, app)

	if owner, ok := lock.Holder(instance.Dir("t")); ok {
		t.Errorf("lock still held by %+v after stop", owner)
	}
	if _, err := os.Stat(instance.SocketPath("t")); !os.IsNotExist(err) {
		t.Errorf("socket not removed: %v", err)
	}
}

func TestStopEndsSubscriptions(t *testing.T) {
	shortHome(t)
	app := startApp(t, Params{Instance: "t"})

	c, err := gateway.Dial(instance.SocketPath("t"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub, err := c.SubscribeMessageInserts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	// A live stream must not hold up shutdown.
	stopApp(t, app)

	select {
	case <-sub.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("subscription still open after daemon stop")
	}
	if sub.Err() == nil {
		t.Error("expected an error on the ended subscription")
	}
}

func TestSecondDaemonRejected(t *testing.T) {
	shortHome(t)
	app := startApp(t, Params{Instance: "t"})
	defer stopApp(t, app)

	second := fx.New(Module(Params{Instance: "t", SocketPath: instance.Dir("t") + "/2.sock"}), fx.NopLogger)
	err := second.Err()
	var held *lock.HeldError
	if !errors.As(err, &held) {
		t.Fatalf("second daemon error = %v, want HeldError", err)
	}
}

func TestTCPListener(t *testing.T) {
	shortHome(t)
	var srv *Server
	app := fx.New(Module(Params{Instance: "t", Listen: "127.0.0.1:0"}), fx.NopLogger, fx.Populate(&srv))
	if err := app.Err(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer stopApp(t, app)

	addrs := srv.Addrs()
	if len(addrs) != 2 || addrs[1].Network() != "tcp" {
		t.Fatalf("listeners = %v, want unix + tcp", addrs)
	}
	c, err := gateway.Dial(addrs[1].String(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	if _, err := c.InsertProfile(ctx, "bob"); err != nil {
		t.Fatalf("InsertProfile over tcp: %v", err)
	}
	missing, err := c.QueryProfile(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("QueryProfile(nobody) = %+v, want nil", missing)
	}
}

func TestFxModuleWiring(t *testing.T) {
	shortHome(t)
	if err := fx.ValidateApp(Module(Params{Instance: "fxtest"})); err != nil {
		t.Fatalf("fx graph does not resolve: %v", err)
	}
}
