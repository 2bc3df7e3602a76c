package mavlinkio

// PX4 main flight modes, encoded into MAVLink's custom_mode field.
const (
	px4MainModeManual     = 1
	px4MainModePosctl     = 3
	px4MainModeAuto       = 4
	px4MainModeOffboard   = 6
)

// PX4 AUTO sub-modes, used when the main mode is px4MainModeAuto.
const (
	px4AutoModeLoiter = 3
	px4AutoModeRTL    = 5
	px4AutoModeLand   = 6
)

func px4CustomMode(main, sub uint32) uint32 {
	return main | (sub << 16)
}

// SET_POSITION_TARGET_*_INT / type_mask bits (ignore flags).
const (
	typemaskXIgnore       = 0b0000000000000001
	typemaskYIgnore       = 0b0000000000000010
	typemaskZIgnore       = 0b0000000000000100
	typemaskVxIgnore      = 0b0000000000001000
	typemaskVyIgnore      = 0b0000000000010000
	typemaskVzIgnore      = 0b0000000000100000
	typemaskAxIgnore      = 0b0000000001000000
	typemaskAyIgnore      = 0b0000000010000000
	typemaskAzIgnore      = 0b0000000100000000
	typemaskForceSet      = 0b0000001000000000
	typemaskYawIgnore     = 0b0000010000000000
	typemaskYawRateIgnore = 0b0000100000000000
)

const positionOnlyTypeMask = typemaskVxIgnore | typemaskVyIgnore | typemaskVzIgnore |
	typemaskAxIgnore | typemaskAyIgnore | typemaskAzIgnore |
	typemaskYawRateIgnore

const velocityOnlyTypeMask = typemaskXIgnore | typemaskYIgnore | typemaskZIgnore |
	typemaskAxIgnore | typemaskAyIgnore | typemaskAzIgnore |
	typemaskYawRateIgnore
