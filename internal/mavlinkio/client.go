package mavlinkio

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
)

const heartbeatGap = 3 * time.Second

// Client is the gomavlib-backed Adapter. One Client serializes all
// outbound traffic to one vehicle over one link.
type Client struct {
	endpoint Endpoint
	state    *telemetry.State
	logger   *log.Logger

	node *gomavlib.Node

	mu            sync.Mutex
	systemID      uint8
	componentID   uint8
	connected     bool
	lastHeartbeat time.Time

	sendMu sync.Mutex

	stopHeartbeat chan struct{}
	heartbeatDone chan struct{}
	listenDone    chan struct{}
}

// NewClient builds a Client for endpoint, publishing ingested telemetry
// into state. The link is not opened until Connect is called.
func NewClient(endpoint Endpoint, state *telemetry.State, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		endpoint:      endpoint,
		state:         state,
		logger:        logger,
		componentID:   1,
		stopHeartbeat: make(chan struct{}),
		heartbeatDone: make(chan struct{}),
		listenDone:    make(chan struct{}),
	}
}

// Connect opens the link and blocks until a heartbeat is observed.
func (c *Client) Connect(ctx context.Context) error {
	endpointConf := c.endpoint.gomavlibEndpoint()
	if endpointConf == nil {
		return fmt.Errorf("mavlinkio: unsupported endpoint %+v", c.endpoint)
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   []gomavlib.EndpointConf{endpointConf},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: 255,
	})
	if err != nil {
		return fmt.Errorf("mavlinkio: open node: %w", err)
	}
	c.node = node

	go c.listen()
	go c.sendGroundStationHeartbeat()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.IsConnected() {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("mavlinkio: no heartbeat before connect deadline: %w", ctx.Err())
		}
	}
}

// Close tears down the link and stops background goroutines.
func (c *Client) Close() error {
	close(c.stopHeartbeat)
	select {
	case <-c.heartbeatDone:
	case <-time.After(2 * time.Second):
		c.logger.Println("mavlinkio: ground-station heartbeat sender stop timeout")
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	if c.node != nil {
		c.node.Close()
	}
	return nil
}

func (c *Client) sendGroundStationHeartbeat() {
	defer close(c.heartbeatDone)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopHeartbeat:
			return
		case <-ticker.C:
			c.writeAll(&common.MessageHeartbeat{
				Type:           common.MAV_TYPE_GCS,
				Autopilot:      common.MAV_AUTOPILOT_INVALID,
				SystemStatus:   common.MAV_STATE_ACTIVE,
				MavlinkVersion: 3,
			})
			now := time.Now()
			c.writeAll(&common.MessageSystemTime{
				TimeUnixUsec: uint64(now.UnixMicro()),
				TimeBootMs:   uint32(now.UnixMilli() % (1 << 32)),
			})
		}
	}
}

func (c *Client) writeAll(msg message.Message) {
	if err := c.node.WriteMessageAll(msg); err != nil {
		c.logger.Printf("mavlinkio: write failed: %v", err)
	}
}

func (c *Client) listen() {
	defer close(c.listenDone)
	for evt := range c.node.Events() {
		if frm, ok := evt.(*gomavlib.EventFrame); ok {
			c.handleMessage(frm.Message(), frm.SystemID())
		}
	}
}

func (c *Client) handleMessage(msg message.Message, sysID uint8) {
	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		c.handleHeartbeat(m, sysID)
	case *common.MessageGlobalPositionInt:
		c.handleGlobalPosition(m)
	case *common.MessageAttitude:
		c.handleAttitude(m)
	case *common.MessageVfrHud:
		c.handleVfrHud(m)
	case *common.MessageSysStatus:
		c.handleSysStatus(m)
	case *common.MessageGpsRawInt:
		c.handleGpsRaw(m)
	case *common.MessageExtendedSysState:
		c.handleExtendedSysState(m)
	case *common.MessageStatustext:
		c.logger.Printf("mavlinkio: STATUSTEXT [%d] %s", m.Severity, m.Text)
	}
}

func (c *Client) handleHeartbeat(msg *common.MessageHeartbeat, sysID uint8) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = true
	c.systemID = sysID
	c.lastHeartbeat = time.Now()
	c.mu.Unlock()

	if !wasConnected {
		c.logger.Printf("mavlinkio: connected to system %d", sysID)
	}

	armed := (msg.BaseMode & common.MAV_MODE_FLAG_SAFETY_ARMED) != 0
	c.state.Mutate(func(snap *telemetry.Snapshot) {
		snap.HaveArmed = true
		snap.Armed = armed
	})
}

func (c *Client) handleGlobalPosition(msg *common.MessageGlobalPositionInt) {
	c.state.Mutate(func(snap *telemetry.Snapshot) {
		pos := geo.Coordinate{
			Latitude:  float64(msg.Lat) / 1e7,
			Longitude: float64(msg.Lon) / 1e7,
			Altitude:  float64(msg.RelativeAlt) / 1000.0,
		}
		snap.HavePosition = true
		snap.Position = pos

		snap.HaveVelocity = true
		snap.Velocity = geo.VectorNED{
			North: float64(msg.Vx) / 100.0,
			East:  float64(msg.Vy) / 100.0,
			Down:  float64(msg.Vz) / 100.0,
		}

		if !snap.HaveHome && snap.HaveArmed && snap.Armed {
			snap.HaveHome = true
			snap.Home = pos
		}
	})
}

func (c *Client) handleAttitude(msg *common.MessageAttitude) {
	c.state.Mutate(func(snap *telemetry.Snapshot) {
		heading := float64(msg.Yaw) * 180 / math.Pi
		if heading < 0 {
			heading += 360
		}
		snap.HaveHeading = true
		snap.Heading = heading
	})
}

func (c *Client) handleVfrHud(msg *common.MessageVfrHud) {
	c.state.Mutate(func(snap *telemetry.Snapshot) {
		snap.HaveGroundspeed = true
		snap.Groundspeed = float64(msg.Groundspeed)
		snap.HaveAirspeed = true
		snap.Airspeed = float64(msg.Airspeed)
		snap.HaveClimbRate = true
		snap.ClimbRate = float64(msg.Climb)
	})
}

func (c *Client) handleSysStatus(msg *common.MessageSysStatus) {
	voltage := float64(msg.VoltageBattery) / 1000.0
	current := float64(msg.CurrentBattery) / 100.0
	percent := float64(msg.BatteryRemaining)

	c.state.Mutate(func(snap *telemetry.Snapshot) {
		snap.HaveBattery = true
		snap.Battery = telemetry.Battery{
			Voltage:    voltage,
			Current:    current,
			Percentage: percent,
		}
	})
}

func (c *Client) handleGpsRaw(msg *common.MessageGpsRawInt) {
	c.state.Mutate(func(snap *telemetry.Snapshot) {
		snap.HaveGPS = true
		snap.GPS = telemetry.GPS{
			FixType:    int(msg.FixType),
			Satellites: int(msg.SatellitesVisible),
			Quality:    float64(msg.Eph) / 100.0,
			Latitude:   float64(msg.Lat) / 1e7,
			Longitude:  float64(msg.Lon) / 1e7,
		}
	})
}

func (c *Client) handleExtendedSysState(msg *common.MessageExtendedSysState) {
	c.state.Mutate(func(snap *telemetry.Snapshot) {
		snap.HaveLandedState = true
		switch msg.LandedState {
		case common.MAV_LANDED_STATE_ON_GROUND:
			snap.LandedState = telemetry.LandedStateOnGround
			snap.HaveInAir = true
			snap.InAir = false
		case common.MAV_LANDED_STATE_TAKEOFF:
			snap.LandedState = telemetry.LandedStateTakingOff
			snap.HaveInAir = true
			snap.InAir = true
		case common.MAV_LANDED_STATE_IN_AIR:
			snap.LandedState = telemetry.LandedStateInAir
			snap.HaveInAir = true
			snap.InAir = true
		case common.MAV_LANDED_STATE_LANDING:
			snap.LandedState = telemetry.LandedStateLanding
			snap.HaveInAir = true
			snap.InAir = true
		}
	})
}

// IsConnected reports whether a heartbeat has arrived within heartbeatGap.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected && time.Since(c.lastHeartbeat) > heartbeatGap {
		c.connected = false
	}
	return c.connected
}

func (c *Client) target() (sysID, compID uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.systemID, c.componentID
}

func (c *Client) sendCommandLong(ctx context.Context, cmd common.MAV_CMD, p1, p2, p3, p4, p5, p6, p7 float32) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	sysID, compID := c.target()
	return c.node.WriteMessageAll(&common.MessageCommandLong{
		TargetSystem:    sysID,
		TargetComponent: compID,
		Command:         cmd,
		Param1:          p1,
		Param2:          p2,
		Param3:          p3,
		Param4:          p4,
		Param5:          p5,
		Param6:          p6,
		Param7:          p7,
	})
}

func (c *Client) Arm(ctx context.Context) error {
	return c.sendCommandLong(ctx, common.MAV_CMD_COMPONENT_ARM_DISARM, 1, 0, 0, 0, 0, 0, 0)
}

func (c *Client) Disarm(ctx context.Context, force bool) error {
	var magic float32
	if force {
		magic = 21196
	}
	return c.sendCommandLong(ctx, common.MAV_CMD_COMPONENT_ARM_DISARM, 0, magic, 0, 0, 0, 0, 0)
}

func (c *Client) Takeoff(ctx context.Context, altitude float64) error {
	return c.sendCommandLong(ctx, common.MAV_CMD_NAV_TAKEOFF, 0, 0, 0, 0, 0, 0, float32(altitude))
}

func (c *Client) Land(ctx context.Context) error {
	return c.sendCommandLong(ctx, common.MAV_CMD_NAV_LAND, 0, 0, 0, 0, 0, 0, 0)
}

func (c *Client) ReturnToLaunch(ctx context.Context) error {
	return c.sendCommandLong(ctx, common.MAV_CMD_NAV_RETURN_TO_LAUNCH, 0, 0, 0, 0, 0, 0, 0)
}

func (c *Client) Hold(ctx context.Context) error {
	return c.sendCommandLong(ctx, common.MAV_CMD_DO_SET_MODE,
		float32(common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED),
		float32(px4CustomMode(px4MainModeAuto, px4AutoModeLoiter)), 0, 0, 0, 0, 0)
}

func (c *Client) GotoLocation(ctx context.Context, target geo.Coordinate, yaw *float64) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	sysID, compID := c.target()
	typeMask := uint16(positionOnlyTypeMask)
	var yawVal float32
	if yaw == nil {
		typeMask |= typemaskYawIgnore
	} else {
		yawVal = float32(*yaw * math.Pi / 180)
	}

	return c.node.WriteMessageAll(&common.MessageSetPositionTargetGlobalInt{
		TargetSystem:    sysID,
		TargetComponent: compID,
		TimeBootMs:      uint32(time.Now().UnixMilli()),
		CoordinateFrame: common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT,
		TypeMask:        common.POSITION_TARGET_TYPEMASK(typeMask),
		LatInt:          int32(target.Latitude * 1e7),
		LonInt:          int32(target.Longitude * 1e7),
		Alt:             float32(target.Altitude),
		Yaw:             yawVal,
	})
}

func (c *Client) SetVelocityNED(ctx context.Context, v geo.VectorNED, yaw *float64) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	sysID, compID := c.target()
	typeMask := uint16(velocityOnlyTypeMask)
	var yawVal float32
	if yaw == nil {
		typeMask |= typemaskYawIgnore
	} else {
		yawVal = float32(*yaw * math.Pi / 180)
	}

	return c.node.WriteMessageAll(&common.MessageSetPositionTargetLocalNed{
		TargetSystem:    sysID,
		TargetComponent: compID,
		TimeBootMs:      uint32(time.Now().UnixMilli()),
		CoordinateFrame: common.MAV_FRAME_LOCAL_NED,
		TypeMask:        common.POSITION_TARGET_TYPEMASK(typeMask),
		Vx:              float32(v.North),
		Vy:              float32(v.East),
		Vz:              float32(v.Down),
		Yaw:             yawVal,
	})
}

func (c *Client) SetMaximumSpeed(ctx context.Context, metersPerSecond float64) error {
	return c.sendCommandLong(ctx, common.MAV_CMD_DO_CHANGE_SPEED, 1, float32(metersPerSecond), -1, 0, 0, 0, 0)
}

func (c *Client) StartOrbit(ctx context.Context, center geo.Coordinate, radius, velocity float64, direction OrbitDirection, yaw YawBehavior) error {
	signedRadius := radius
	if direction == OrbitCounterClockwise {
		signedRadius = -radius
	}
	return c.sendCommandLong(ctx, common.MAV_CMD_DO_ORBIT,
		float32(signedRadius), float32(velocity), float32(yaw), float32(0),
		float32(center.Latitude), float32(center.Longitude), float32(center.Altitude))
}
