package instance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/chatwave/internal/config"
)

func TestDirUsesHomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv(HomeEnv, base)

	if got, want := Dir("main"), filepath.Join(base, "instances", "main"); got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
	if got, want := LogPath("main", "wavestored"), filepath.Join(base, "instances", "main", "logs", "wavestored.log"); got != want {
		t.Errorf("LogPath = %q, want %q", got, want)
	}
}

func TestDefaultBaseDir(t *testing.T) {
	t.Setenv(HomeEnv, "")
	home, _ := os.UserHomeDir()
	if got, want := BaseDir(), filepath.Join(home, ".chatwave"); got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestEnsureDir(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	if err := EnsureDir("test"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(LogDir("test"))
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("permission = %o, want 0700", perm)
	}
}

func TestResolvePrecedence(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	if got := Resolve(""); got != DefaultName {
		t.Errorf("Resolve() without config = %q, want %q", got, DefaultName)
	}
	if err := config.Save(ConfigPath(), &config.Config{DefaultInstance: "work"}); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "work" {
		t.Errorf("Resolve() = %q, want work", got)
	}
	if got := Resolve("play"); got != "play" {
		t.Errorf("Resolve(play) = %q, want play", got)
	}
}

func TestResolveEndpoints(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	ep := ResolveEndpoints("main", "", "")
	if ep.Address != SocketPath("main") || ep.BeaconNetwork != "unixgram" || ep.BeaconAddress != BeaconPath("main") {
		t.Errorf("defaults = %+v", ep)
	}

	cfg := &config.Config{Store: config.Store{Address: "db.lan:7070", Beacon: "db.lan:7071"}}
	if err := config.Save(ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}
	ep = ResolveEndpoints("main", "", "")
	if ep.Address != "db.lan:7070" || ep.BeaconNetwork != "udp" || ep.BeaconAddress != "db.lan:7071" {
		t.Errorf("from config = %+v", ep)
	}

	ep = ResolveEndpoints("main", "/tmp/x.sock", "/tmp/b.sock")
	if ep.Address != "/tmp/x.sock" || ep.BeaconNetwork != "unixgram" {
		t.Errorf("from flags = %+v", ep)
	}
}
