package geofence

import (
	"fmt"
	"log"
	"net"
	"runtime/debug"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

// Server answers geofence requests over length-prefixed JSON frames. One
// Server guards one SafetyConfig; each accepted connection is handled in
// its own goroutine, recovered so one misbehaving client can't take the
// server down.
type Server struct {
	cfg    SafetyConfig
	logger *log.Logger
}

// NewServer builds a Server enforcing cfg.
func NewServer(cfg SafetyConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, logger: logger}
}

// Serve accepts connections on listener until it is closed.
func (s *Server) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("geofence: accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if err := recover(); err != nil {
			s.logger.Printf("geofence: PANIC: %v\n%s", err, debug.Stack())
		}
	}()

	for {
		var req Request
		if err := readFrame(conn, &req); err != nil {
			return
		}

		reply := s.handle(req)
		if err := writeFrame(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) handle(req Request) Reply {
	switch req.Op {
	case OpStatus:
		return Reply{OK: true}

	case OpWaypoint:
		if req.From == nil || req.To == nil {
			return Reply{Valid: false, Reason: "missing from/to"}
		}
		from := geo.Coordinate{Latitude: req.From.Lat, Longitude: req.From.Lon, Altitude: req.From.Alt}
		to := geo.Coordinate{Latitude: req.To.Lat, Longitude: req.To.Lon, Altitude: req.To.Alt}
		ok, reason := s.cfg.ValidateWaypoint(from, to)
		return Reply{Valid: ok, Reason: reason}

	case OpSpeed:
		return Reply{Valid: s.cfg.ValidateSpeed(req.Speed)}

	case OpTakeoff:
		ok, reason := s.cfg.ValidateTakeoff(req.Lat, req.Lon, req.Alt)
		return Reply{Valid: ok, Reason: reason}

	default:
		return Reply{Valid: false, Reason: fmt.Sprintf("unknown op %q", req.Op)}
	}
}
