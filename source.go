// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.26
//

package gorssi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Kind of radio source
type SourceType int

const (
	WIFI_ACCESS_POINT SourceType = iota
	BEACON
)

func (t SourceType) String() string {
	switch t {
	case WIFI_ACCESS_POINT:
		return "ap"
	case BEACON:
		return "beacon"
	default:
		return "UNKNOWN!"
	}
}

// ParseSourceType is the inverse of SourceType.String
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ap", "wifi":
		return WIFI_ACCESS_POINT, nil
	case "beacon", "ble":
		return BEACON, nil
	}
	return 0, fmt.Errorf("%w: unknown source type %q", ErrInvalidConfig, s)
}

// RadioSource is the emitter whose parameters are estimated.
// The estimator only needs its identity and carrier frequency.
type RadioSource interface {
	ID() string
	Type() SourceType
	Frequency() float64 // Carrier frequency [Hz]
}

//-------------------------------------------------------------------
// AccessPoint
//-------------------------------------------------------------------

// Wi-Fi access point identified by its BSSID
type AccessPoint struct {
	BSSID string
	SSID  string  // Optional network name
	Freq  float64 // Carrier frequency [Hz]
}

func NewAccessPoint(bssid string, freq float64) (*AccessPoint, error) {
	if bssid == "" {
		return nil, fmt.Errorf("%w: empty BSSID", ErrInvalidConfig)
	}
	if !(freq > 0) {
		return nil, fmt.Errorf("%w: frequency must be positive, got %v", ErrInvalidConfig, freq)
	}
	return &AccessPoint{BSSID: bssid, Freq: freq}, nil
}

func (ap *AccessPoint) ID() string         { return ap.BSSID }
func (ap *AccessPoint) Type() SourceType   { return WIFI_ACCESS_POINT }
func (ap *AccessPoint) Frequency() float64 { return ap.Freq }

//-------------------------------------------------------------------
// Beacon
//-------------------------------------------------------------------

// BLE beacon identified by proximity UUID, major and minor
type Beacon struct {
	UUID  uuid.UUID
	Major uint16
	Minor uint16
	Freq  float64 // Carrier frequency [Hz]
}

func NewBeacon(id uuid.UUID, major, minor uint16, freq float64) (*Beacon, error) {
	if !(freq > 0) {
		return nil, fmt.Errorf("%w: frequency must be positive, got %v", ErrInvalidConfig, freq)
	}
	return &Beacon{UUID: id, Major: major, Minor: minor, Freq: freq}, nil
}

// ParseBeacon reads a beacon identifier "uuid/major/minor" (major and minor may be omitted)
func ParseBeacon(s string, freq float64) (*Beacon, error) {
	f := strings.Split(s, "/")
	if len(f) > 3 {
		return nil, fmt.Errorf("%w: invalid beacon identifier %q", ErrInvalidConfig, s)
	}
	id, err := uuid.Parse(f[0])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid beacon uuid %q: %v", ErrInvalidConfig, f[0], err)
	}
	var mm [2]uint16
	for i, a := range f[1:] {
		v, err := strconv.ParseUint(a, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid beacon major/minor %q", ErrInvalidConfig, a)
		}
		mm[i] = uint16(v)
	}
	return NewBeacon(id, mm[0], mm[1], freq)
}

func (b *Beacon) ID() string {
	return fmt.Sprintf("%s/%d/%d", b.UUID, b.Major, b.Minor)
}

func (b *Beacon) Type() SourceType   { return BEACON }
func (b *Beacon) Frequency() float64 { return b.Freq }

// NewSource creates a source of the given type from its textual identifier
func NewSource(t SourceType, id string, freq float64) (RadioSource, error) {
	switch t {
	case WIFI_ACCESS_POINT:
		return NewAccessPoint(id, freq)
	case BEACON:
		return ParseBeacon(id, freq)
	default:
		return nil, fmt.Errorf("%w: unknown source type %d", ErrInvalidConfig, t)
	}
}
