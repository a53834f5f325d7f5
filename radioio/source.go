package radioio

import (
	"bytes"
	"fmt"

	"indoor-locator/locatorerr"
)

// SourceKind discriminates the two RadioSource identity shapes.
type SourceKind int

const (
	WiFiAP SourceKind = iota
	Beacon
)

func (k SourceKind) String() string {
	if k == WiFiAP {
		return "WiFiAP"
	}
	return "Beacon"
}

// RadioSource is an opaque, hashable, equatable identity plus a carrier
// frequency. Equality uses the identity field only — frequency never
// participates, per spec.
type RadioSource struct {
	Kind        SourceKind
	BSSID       string   // WiFiAP identity
	BeaconIDs   [][]byte // Beacon identity: ordered multi-part byte strings
	FrequencyHz float64
}

// NewWiFiAP builds a Wi-Fi access point source identified by its BSSID.
func NewWiFiAP(bssid string, frequencyHz float64) (RadioSource, error) {
	if bssid == "" {
		return RadioSource{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewWiFiAP", "bssid must not be empty")
	}
	if frequencyHz <= 0 {
		return RadioSource{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewWiFiAP", "frequency must be > 0, got %v", frequencyHz)
	}
	return RadioSource{Kind: WiFiAP, BSSID: bssid, FrequencyHz: frequencyHz}, nil
}

// NewBeacon builds a beacon source identified by its ordered identifier
// parts (e.g. UUID, major, minor for iBeacon-style framing).
func NewBeacon(ids [][]byte, frequencyHz float64) (RadioSource, error) {
	if len(ids) == 0 {
		return RadioSource{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewBeacon", "beacon must have at least one identifier part")
	}
	if frequencyHz <= 0 {
		return RadioSource{}, locatorerr.Newf(locatorerr.InvalidArgument, "radioio.NewBeacon", "frequency must be > 0, got %v", frequencyHz)
	}
	cp := make([][]byte, len(ids))
	for i, id := range ids {
		b := make([]byte, len(id))
		copy(b, id)
		cp[i] = b
	}
	return RadioSource{Kind: Beacon, BeaconIDs: cp, FrequencyHz: frequencyHz}, nil
}

// Equal compares identity only (kind + BSSID or beacon ID sequence).
func (s RadioSource) Equal(o RadioSource) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case WiFiAP:
		return s.BSSID == o.BSSID
	case Beacon:
		if len(s.BeaconIDs) != len(o.BeaconIDs) {
			return false
		}
		for i := range s.BeaconIDs {
			if !bytes.Equal(s.BeaconIDs[i], o.BeaconIDs[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Key returns a value usable as a map key for hashing RadioSource by
// identity (Go slices aren't comparable, so BeaconIDs is flattened).
func (s RadioSource) Key() string {
	if s.Kind == WiFiAP {
		return "wifi:" + s.BSSID
	}
	var buf bytes.Buffer
	buf.WriteString("beacon:")
	for _, part := range s.BeaconIDs {
		fmt.Fprintf(&buf, "%x|", part)
	}
	return buf.String()
}
