// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package gorssi

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestParseSourceType(t *testing.T) {
	cases := map[string]SourceType{
		"ap":     WIFI_ACCESS_POINT,
		"WiFi":   WIFI_ACCESS_POINT,
		"beacon": BEACON,
		" BLE ":  BEACON,
	}
	for in, want := range cases {
		got, err := ParseSourceType(in)
		if err != nil || got != want {
			t.Errorf("ParseSourceType(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseSourceType("lora"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if WIFI_ACCESS_POINT.String() != "ap" || BEACON.String() != "beacon" {
		t.Errorf("unexpected source type names")
	}
}

func TestAccessPoint(t *testing.T) {
	ap, err := NewAccessPoint("aa:bb:cc:dd:ee:ff", WIFI_5G)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ap.ID() != "aa:bb:cc:dd:ee:ff" || ap.Type() != WIFI_ACCESS_POINT || ap.Frequency() != WIFI_5G {
		t.Errorf("unexpected access point %+v", ap)
	}
	if _, err := NewAccessPoint("", WIFI_5G); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty BSSID: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewAccessPoint("ap", 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero frequency: expected ErrInvalidConfig, got %v", err)
	}
}

func TestBeacon(t *testing.T) {
	id := uuid.MustParse("f7826da6-4fa2-4e98-8024-bc5b71e0893e")
	b, err := ParseBeacon(id.String()+"/100/7", BLE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.UUID != id || b.Major != 100 || b.Minor != 7 {
		t.Errorf("unexpected beacon %+v", b)
	}
	if b.ID() != id.String()+"/100/7" || b.Type() != BEACON {
		t.Errorf("ID = %q", b.ID())
	}

	// Major and minor may be omitted
	b, err = ParseBeacon(id.String(), BLE)
	if err != nil || b.Major != 0 || b.Minor != 0 {
		t.Errorf("ParseBeacon without major/minor = %+v, %v", b, err)
	}

	for _, in := range []string{"not-a-uuid/1/2", id.String() + "/70000/1", id.String() + "/1/2/3"} {
		if _, err := ParseBeacon(in, BLE); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ParseBeacon(%q): expected ErrInvalidConfig, got %v", in, err)
		}
	}
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(BEACON, "f7826da6-4fa2-4e98-8024-bc5b71e0893e/1/2", BLE)
	if err != nil || src.Type() != BEACON {
		t.Errorf("NewSource(BEACON) = %v, %v", src, err)
	}
	src, err = NewSource(WIFI_ACCESS_POINT, "ap1", WIFI_2G4)
	if err != nil || src.ID() != "ap1" {
		t.Errorf("NewSource(WIFI_ACCESS_POINT) = %v, %v", src, err)
	}
	if _, err := NewSource(SourceType(9), "x", BLE); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRssiReading(t *testing.T) {
	src, _ := NewAccessPoint("ap", WIFI_2G4)
	r, err := NewRssiReading(src, -60, NewPoint2D(1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.RssiStdDev(); ok {
		t.Errorf("reading must have no standard deviation")
	}
	if readingWeight(r) != 1 {
		t.Errorf("weight = %v, want 1", readingWeight(r))
	}

	r, err = NewRssiReadingWithStdDev(src, -60, NewPoint2D(1, 2), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if readingWeight(r) != 0.25 {
		t.Errorf("weight = %v, want 0.25", readingWeight(r))
	}

	// Zero standard deviation is clamped
	r, _ = NewRssiReadingWithStdDev(src, -60, NewPoint2D(1, 2), 0)
	if w := readingWeight(r); w != 1/(MIN_RSSI_STD_DEV*MIN_RSSI_STD_DEV) {
		t.Errorf("weight = %v", w)
	}

	if _, err := NewRssiReadingWithStdDev(src, -60, NewPoint2D(1, 2), -1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative std: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewRssiReading(nil, -60, NewPoint2D(1, 2)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil source: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewRssiReading(src, -60, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil position: expected ErrInvalidConfig, got %v", err)
	}
	if err := validateReading(r, 3); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("dimension mismatch: expected ErrInvalidConfig, got %v", err)
	}
}
