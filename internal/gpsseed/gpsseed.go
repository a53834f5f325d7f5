// Package gpsseed supplies real-world ground-truth receiver positions,
// adapted from the NMEA/gpsd GPS interface. The fixture generator in
// internal/bench draws its positions at random and does not call this
// package: a recorded NMEA track file stands in for live
// serial hardware, and the gpsd client is kept as-is for a live fix.
// Fixes are reprojected from lat/lon/alt into a local ENU radioio.Point
// anchored at the first fix, since the estimation packages work in plane
// coordinates, not geodetic ones.
package gpsseed

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/stratoberry/go-gpsd"

	"indoor-locator/locatorlog"
	"indoor-locator/radioio"
)

// earthRadiusM is used for the equirectangular local-tangent-plane
// projection; adequate for the sub-kilometre spans a fixture covers.
const earthRadiusM = 6371000.0

// Fix is one decoded GPS position.
type Fix struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Timestamp  time.Time
	FixQuality int
	Satellites int
}

// Source yields ground-truth fixes.
type Source interface {
	Next() (Fix, error) // io.EOF when the track is exhausted
	Close() error
}

// Projector converts geodetic fixes into local ENU points anchored at
// the first fix it sees.
type Projector struct {
	origin *Fix
	log    *locatorlog.Logger
}

func NewProjector(log *locatorlog.Logger) *Projector {
	return &Projector{log: log}
}

// Project returns fix as a 3D radioio.Point (east, north, up in metres)
// relative to the first fix ever passed to this Projector.
func (p *Projector) Project(fix Fix) (radioio.Point, error) {
	if p.origin == nil {
		o := fix
		p.origin = &o
		if p.log != nil {
			p.log.Infof("established ENU origin at lat=%.6f lon=%.6f", fix.Latitude, fix.Longitude)
		}
		return radioio.NewPoint(0, 0, 0)
	}
	dLat := (fix.Latitude - p.origin.Latitude) * math.Pi / 180
	dLon := (fix.Longitude - p.origin.Longitude) * math.Pi / 180
	lat0 := p.origin.Latitude * math.Pi / 180

	north := dLat * earthRadiusM
	east := dLon * earthRadiusM * math.Cos(lat0)
	up := fix.Altitude - p.origin.Altitude
	return radioio.NewPoint(east, north, up)
}

// TrackFileSource replays previously-recorded NMEA GGA/RMC sentences from
// a track file, in place of the teacher's live serial read loop.
type TrackFileSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	log     *locatorlog.Logger
	last    Fix
}

func NewTrackFileSource(r io.Reader, log *locatorlog.Logger) *TrackFileSource {
	s := &TrackFileSource{scanner: bufio.NewScanner(r), log: log}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Next advances to the next GGA/RMC sentence carrying a valid fix.
func (s *TrackFileSource) Next() (Fix, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if len(line) == 0 || line[0] != '$' {
			continue
		}
		sentence, err := nmea.Parse(line)
		if err != nil {
			if s.log != nil {
				s.log.Debugf("NMEA parse error: %v (line: %s)", err, line)
			}
			continue
		}
		switch sent := sentence.(type) {
		case nmea.GGA:
			if sent.FixQuality == nmea.Invalid {
				continue
			}
			s.last = Fix{
				Latitude:   sent.Latitude,
				Longitude:  sent.Longitude,
				Altitude:   sent.Altitude,
				Timestamp:  time.Now(),
				FixQuality: 1,
				Satellites: int(sent.NumSatellites),
			}
			return s.last, nil
		case nmea.RMC:
			if sent.Validity != "A" {
				continue
			}
			s.last.Latitude = sent.Latitude
			s.last.Longitude = sent.Longitude
			s.last.FixQuality = 1
			return s.last, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return Fix{}, fmt.Errorf("gpsseed: track file scan error: %w", err)
	}
	return Fix{}, io.EOF
}

func (s *TrackFileSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// GPSDSource pulls one live fix at a time from a gpsd daemon.
type GPSDSource struct {
	session *gpsd.Session
	fixes   chan Fix
	log     *locatorlog.Logger
}

// NewGPSDSource dials gpsd at host:port and starts watching for TPV
// reports; Close stops the session.
func NewGPSDSource(host, port string, log *locatorlog.Logger) (*GPSDSource, error) {
	address := gpsd.DefaultAddress
	if host != "" && port != "" {
		address = fmt.Sprintf("%s:%s", host, port)
	}
	session, err := gpsd.Dial(address)
	if err != nil {
		return nil, fmt.Errorf("gpsseed: dial gpsd at %s: %w", address, err)
	}

	s := &GPSDSource{session: session, fixes: make(chan Fix, 16), log: log}
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok || tpv.Mode < 2 || (tpv.Lat == 0 && tpv.Lon == 0) {
			return
		}
		fix := Fix{Latitude: tpv.Lat, Longitude: tpv.Lon, Altitude: tpv.Alt, Timestamp: tpv.Time, FixQuality: 1}
		select {
		case s.fixes <- fix:
		default:
			if s.log != nil {
				s.log.Warnf("dropped gpsd fix, consumer too slow")
			}
		}
	})
	session.Watch()
	return s, nil
}

// Next blocks until the next fix arrives from gpsd.
func (s *GPSDSource) Next() (Fix, error) {
	fix, ok := <-s.fixes
	if !ok {
		return Fix{}, io.EOF
	}
	return fix, nil
}

func (s *GPSDSource) Close() error {
	close(s.fixes)
	if s.session != nil {
		s.session.Close()
	}
	return nil
}
