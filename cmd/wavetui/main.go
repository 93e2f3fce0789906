package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/matheus3301/chatwave/internal/instance"
	"github.com/matheus3301/chatwave/internal/tui"
	"github.com/matheus3301/chatwave/internal/tui/client"
	flag "github.com/spf13/pflag"
)

func main() {
	instanceFlag := flag.StringP("instance", "i", "", "instance name (overrides config default)")
	addressFlag := flag.String("address", "", "daemon address: socket path or host:port")
	beaconFlag := flag.String("beacon", "", "presence beacon socket path or host:port")
	asFlag := flag.String("as", "", "username to sign in as (default: config default_profile)")
	levelFlag := flag.String("log-level", "", "log level (debug, info, warn, error)")
	noStart := flag.Bool("no-start", false, "do not start a local daemon if none is running")
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	c, err := client.New(client.Options{
		Instance: name,
		Address:  *addressFlag,
		Beacon:   *beaconFlag,
		Program:  "wavetui",
		LogLevel: *levelFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	// Probe daemon health; auto-start a local one if needed.
	if err := c.Probe(2 * time.Second); err != nil {
		if *noStart || *addressFlag != "" {
			fmt.Fprintf(os.Stderr, "daemon not reachable at %s: %v\n", c.Endpoints.Address, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "daemon not running for instance %q, starting...\n", name)
		if err := startDaemon(name); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start daemon: %v\n", err)
			os.Exit(1)
		}
		if !waitForDaemon(c, 10*time.Second) {
			fmt.Fprintf(os.Stderr, "daemon did not become ready\n")
			os.Exit(1)
		}
	}

	username := *asFlag
	if username == "" {
		username = c.DefaultProfile()
	}
	app := tui.NewApp(c, username)

	// Signals skip the graceful sign-out and go through the beacon.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigCh
		c.Session.Abort()
		app.Stop()
	}()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.Session.SignOut(ctx)
}

func startDaemon(name string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	daemon := filepath.Join(filepath.Dir(executable), "wavestored")

	if _, err := os.Stat(daemon); err != nil {
		daemon = "wavestored"
	}

	cmd := exec.Command(daemon, "--instance", name, "--quiet")
	// Inherit stderr so daemon startup errors are visible.
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd.Start()
}

// waitForDaemon polls the daemon with a real gRPC health check.
func waitForDaemon(c *client.Client, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Probe(time.Second) == nil {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
