package instance

import "github.com/matheus3301/chatwave/internal/config"

const DefaultName = "main"

// Resolve determines the active instance name using precedence:
// 1. flagOverride (--instance flag)
// 2. config.toml default_instance
// 3. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultInstance != "" {
		return cfg.DefaultInstance
	}
	return DefaultName
}

// Endpoints are the daemon addresses a client talks to.
type Endpoints struct {
	Address       string // gRPC: socket path or host:port
	BeaconNetwork string // "unixgram" or "udp"
	BeaconAddress string
}

// ResolveEndpoints applies flag > config > instance default precedence to
// the daemon addresses.
func ResolveEndpoints(name, addressFlag, beaconFlag string) Endpoints {
	ep := Endpoints{
		Address:       SocketPath(name),
		BeaconNetwork: "unixgram",
		BeaconAddress: BeaconPath(name),
	}
	if cfg, err := config.Load(ConfigPath()); err == nil {
		if cfg.Store.Address != "" {
			ep.Address = cfg.Store.Address
		}
		if cfg.Store.Beacon != "" {
			ep.BeaconNetwork, ep.BeaconAddress = DatagramNetwork(cfg.Store.Beacon)
		}
	}
	if addressFlag != "" {
		ep.Address = addressFlag
	}
	if beaconFlag != "" {
		ep.BeaconNetwork, ep.BeaconAddress = DatagramNetwork(beaconFlag)
	}
	return ep
}

// DatagramNetwork picks the datagram network from the address form: a path
// is a Unix socket, anything else is host:port.
func DatagramNetwork(address string) (string, string) {
	if address != "" && address[0] == '/' {
		return "unixgram", address
	}
	return "udp", address
}
