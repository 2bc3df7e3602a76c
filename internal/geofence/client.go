package geofence

import (
	"net"
	"sync"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
	"github.com/flightpath-dev/vehiclecore/internal/vehicleerr"
)

// clientTimeout is the reply deadline per call; exceeding it surfaces
// vehicleerr.GeofenceUnavailableError.
const clientTimeout = time.Second

// Client is a request/reply client to a geofence Server over a single
// dialed connection. One Client's transport is exclusive to the owning
// Vehicle: calls are serialized by mu, matching the adapter's one
// command in flight at a time discipline.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial opens a connection to a geofence server.
func Dial(address string) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(req Request) (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetDeadline(time.Now().Add(clientTimeout)); err != nil {
		return Reply{}, err
	}
	defer c.conn.SetDeadline(time.Time{})

	if err := writeFrame(c.conn, req); err != nil {
		return Reply{}, &vehicleerr.GeofenceUnavailableError{}
	}

	var reply Reply
	if err := readFrame(c.conn, &reply); err != nil {
		return Reply{}, &vehicleerr.GeofenceUnavailableError{}
	}
	return reply, nil
}

// Status pings the server.
func (c *Client) Status() (bool, error) {
	reply, err := c.call(Request{Op: OpStatus})
	if err != nil {
		return false, err
	}
	return reply.OK, nil
}

// ValidateWaypoint asks the server whether the from→to leg is allowed.
func (c *Client) ValidateWaypoint(from, to geo.Coordinate) (bool, string, error) {
	reply, err := c.call(Request{
		Op:   OpWaypoint,
		From: &LatLon{Lat: from.Latitude, Lon: from.Longitude, Alt: from.Altitude},
		To:   &LatLon{Lat: to.Latitude, Lon: to.Longitude, Alt: to.Altitude},
	})
	if err != nil {
		return false, "", err
	}
	return reply.Valid, reply.Reason, nil
}

// ValidateSpeed asks the server whether speed is allowed.
func (c *Client) ValidateSpeed(speed float64) (bool, error) {
	reply, err := c.call(Request{Op: OpSpeed, Speed: speed})
	if err != nil {
		return false, err
	}
	return reply.Valid, nil
}

// ValidateTakeoff asks the server whether a takeoff at (lat,lon,alt) is
// allowed.
func (c *Client) ValidateTakeoff(lat, lon, alt float64) (bool, string, error) {
	reply, err := c.call(Request{Op: OpTakeoff, Lat: lat, Lon: lon, Alt: alt})
	if err != nil {
		return false, "", err
	}
	return reply.Valid, reply.Reason, nil
}
