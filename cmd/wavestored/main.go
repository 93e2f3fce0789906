package main

import (
	"fmt"
	"os"

	"github.com/matheus3301/chatwave/internal/config"
	"github.com/matheus3301/chatwave/internal/daemon"
	"github.com/matheus3301/chatwave/internal/instance"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
)

func main() {
	instanceFlag := flag.StringP("instance", "i", "", "instance name (overrides config default)")
	socketFlag := flag.String("socket", "", "gRPC Unix socket path (default: instance socket)")
	beaconFlag := flag.String("beacon", "", "presence beacon socket path or host:port")
	listenFlag := flag.String("listen", "", "additional TCP address for gRPC, e.g. :7070")
	levelFlag := flag.String("log-level", "", "log level (debug, info, warn, error)")
	quietFlag := flag.BoolP("quiet", "q", false, "log to the log file only")
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(instance.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: config: %v\n", err)
		os.Exit(1)
	}
	p := daemon.Params{
		Instance:   name,
		SocketPath: *socketFlag,
		Beacon:     firstNonEmpty(*beaconFlag, cfg.Store.Beacon),
		Listen:     firstNonEmpty(*listenFlag, cfg.Store.Listen),
		LogLevel:   firstNonEmpty(*levelFlag, cfg.Log.Level),
		Console:    !*quietFlag,
	}

	app := fx.New(
		daemon.Module(p),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app.Run()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
