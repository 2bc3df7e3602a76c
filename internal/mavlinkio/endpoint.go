package mavlinkio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v3"
)

// Endpoint is a parsed connection URI in one of the forms accepted by the
// adapter: udp://host:port, tcp://host:port or serial://device:baud.
type Endpoint struct {
	Scheme  string
	Address string // host:port for udp/tcp
	Device  string // device path for serial
	Baud    int    // baud rate for serial
}

// ParseEndpoint parses a connection URI into an Endpoint.
func ParseEndpoint(uri string) (Endpoint, error) {
	parts := strings.SplitN(uri, "://", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Endpoint{}, fmt.Errorf("mavlinkio: malformed endpoint %q", uri)
	}

	scheme, rest := parts[0], parts[1]
	switch scheme {
	case "udp", "tcp":
		if !strings.Contains(rest, ":") {
			return Endpoint{}, fmt.Errorf("mavlinkio: %s endpoint %q missing port", scheme, uri)
		}
		return Endpoint{Scheme: scheme, Address: rest}, nil

	case "serial":
		device, baudStr, ok := strings.Cut(rest, ":")
		if !ok {
			return Endpoint{}, fmt.Errorf("mavlinkio: serial endpoint %q missing baud rate", uri)
		}
		baud, err := strconv.Atoi(baudStr)
		if err != nil {
			return Endpoint{}, fmt.Errorf("mavlinkio: invalid baud rate in %q: %w", uri, err)
		}
		return Endpoint{Scheme: scheme, Device: device, Baud: baud}, nil

	default:
		return Endpoint{}, fmt.Errorf("mavlinkio: unsupported endpoint scheme %q", scheme)
	}
}

// gomavlibEndpoint builds the gomavlib endpoint configuration for e. The
// library connects as a client in every case: a ground-station process
// dials out to the vehicle's link rather than listening for it.
func (e Endpoint) gomavlibEndpoint() gomavlib.EndpointConf {
	switch e.Scheme {
	case "udp":
		return gomavlib.EndpointUDPClient{Address: e.Address}
	case "tcp":
		return gomavlib.EndpointTCPClient{Address: e.Address}
	case "serial":
		return gomavlib.EndpointSerial{Device: e.Device, Baud: e.Baud}
	default:
		return nil
	}
}
