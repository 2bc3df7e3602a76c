package geofence

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Op names the four request kinds the wire protocol carries.
type Op string

const (
	OpStatus          Op = "status"
	OpWaypoint        Op = "waypoint"
	OpSpeed           Op = "speed"
	OpTakeoff         Op = "takeoff"
)

// LatLon is a bare coordinate pair, used in Request.From/Request.To.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// Request is the wire request envelope. Only the fields relevant to Op
// are populated.
type Request struct {
	Op    Op      `json:"op"`
	From  *LatLon `json:"from,omitempty"`
	To    *LatLon `json:"to,omitempty"`
	Speed float64 `json:"speed,omitempty"`
	Alt   float64 `json:"alt,omitempty"`
	Lat   float64 `json:"lat,omitempty"`
	Lon   float64 `json:"lon,omitempty"`
}

// Reply is the wire reply envelope.
type Reply struct {
	OK     bool   `json:"ok,omitempty"`
	Valid  bool   `json:"valid,omitempty"`
	Reason string `json:"reason,omitempty"`
}

const maxFrameSize = 1 << 20 // 1 MiB, generous for this JSON protocol

// writeFrame writes v as a 4-byte big-endian length prefix followed by
// its JSON encoding.
func writeFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("geofence: encode frame: %w", err)
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("geofence: write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("geofence: write frame body: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed JSON frame into v.
func readFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("geofence: read frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return fmt.Errorf("geofence: frame of %d bytes exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("geofence: read frame body: %w", err)
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("geofence: decode frame: %w", err)
	}
	return nil
}
