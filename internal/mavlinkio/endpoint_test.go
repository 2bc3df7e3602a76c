package mavlinkio

import "testing"

func TestParseEndpointUDP(t *testing.T) {
	e, err := ParseEndpoint("udp://127.0.0.1:14550")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Scheme != "udp" || e.Address != "127.0.0.1:14550" {
		t.Fatalf("unexpected endpoint: %+v", e)
	}
}

func TestParseEndpointSerial(t *testing.T) {
	e, err := ParseEndpoint("serial:///dev/ttyUSB0:57600")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Device != "/dev/ttyUSB0" || e.Baud != 57600 {
		t.Fatalf("unexpected endpoint: %+v", e)
	}
}

func TestParseEndpointRejectsUnknownScheme(t *testing.T) {
	if _, err := ParseEndpoint("ftp://host:21"); err == nil {
		t.Fatal("expected an error for an unsupported scheme")
	}
}

func TestParseEndpointRejectsMalformed(t *testing.T) {
	if _, err := ParseEndpoint("not-a-uri"); err == nil {
		t.Fatal("expected an error for a malformed endpoint")
	}
	if _, err := ParseEndpoint("serial:///dev/ttyUSB0"); err == nil {
		t.Fatal("expected an error for a serial endpoint missing a baud rate")
	}
}
