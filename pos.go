// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.19
//

// Geodetic conversions used to bring outdoor readings (latitude, longitude,
// ellipsoidal height) into the local ENU frame the estimator works in.

package gorssi

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

//-------------------------------------------------------------------
// PosLLH
//-------------------------------------------------------------------

// Geodetic position. Lat/Lon in radians, Hei in meters (WGS84 ellipsoid)
type PosLLH struct {
	Lat float64
	Lon float64
	Hei float64
}

// NewPosLLHDeg creates a position from latitude/longitude in degrees
func NewPosLLHDeg(lat, lon, hei float64) PosLLH {
	return PosLLH{Lat: ToRad(lat), Lon: ToRad(lon), Hei: hei}
}

// ToXYZ converts to ECEF coordinates
func (llh PosLLH) ToXYZ() r3.Vector {
	e2 := Fe * (2 - Fe) // Squared eccentricity
	sinLat := math.Sin(llh.Lat)
	n := Re / math.Sqrt(1-e2*sinLat*sinLat) // Radius of curvature in the prime vertical
	return r3.Vector{
		X: (n + llh.Hei) * math.Cos(llh.Lat) * math.Cos(llh.Lon),
		Y: (n + llh.Hei) * math.Cos(llh.Lat) * math.Sin(llh.Lon),
		Z: (n*(1-e2) + llh.Hei) * sinLat,
	}
}

// ToENU converts to the local frame centered on base
func (llh PosLLH) ToENU(base PosLLH) PosENU {
	return XYZToENU(llh.ToXYZ(), base)
}

// Read from string "lat lon hei" (degrees)
func (llh *PosLLH) Set(s string) error {
	f := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(f) != 3 {
		return fmt.Errorf("%w: expected \"lat lon hei\", got %q", ErrInvalidConfig, s)
	}
	v := [3]float64{}
	for i := range v {
		var err error
		v[i], err = strconv.ParseFloat(f[i], 64)
		if err != nil {
			return err
		}
	}
	*llh = NewPosLLHDeg(v[0], v[1], v[2])
	return nil
}

// Convert to string (degrees)
func (llh *PosLLH) String() string {
	return fmt.Sprintf("%.9f %.9f %.4f", ToDeg(llh.Lat), ToDeg(llh.Lon), llh.Hei)
}

// Type is the value type name shown in command line help
func (llh *PosLLH) Type() string {
	return "llh"
}

//-------------------------------------------------------------------
// ECEF
//-------------------------------------------------------------------

// XYZToLLH converts ECEF coordinates to a geodetic position
func XYZToLLH(pos r3.Vector) PosLLH {
	// In case of origin
	if pos.X == 0 && pos.Y == 0 && pos.Z == 0 {
		return PosLLH{Lat: 0, Lon: 0, Hei: -Re}
	}

	a := Re             // Semi-major axis
	b := a * (1 - Fe)   // Semi-minor axis
	e2 := Fe * (2 - Fe) // Squared eccentricity
	h := a*a - b*b
	p := math.Hypot(pos.X, pos.Y)
	t := math.Atan2(pos.Z*a, p*b)
	sint := math.Sin(t)
	cost := math.Cos(t)

	lat := math.Atan2(pos.Z+h/b*sint*sint*sint, p-h/a*cost*cost*cost)
	lon := math.Atan2(pos.Y, pos.X)
	n := a / math.Sqrt(1-e2*math.Sin(lat)*math.Sin(lat))
	return PosLLH{Lat: lat, Lon: lon, Hei: p/math.Cos(lat) - n}
}

// XYZToENU rotates the ECEF offset from base into base's East-North-Up frame
func XYZToENU(pos r3.Vector, base PosLLH) PosENU {
	d := pos.Sub(base.ToXYZ())
	s1, c1 := math.Sincos(base.Lon)
	s2, c2 := math.Sincos(base.Lat)
	return PosENU{
		E: -d.X*s1 + d.Y*c1,
		N: -d.X*c1*s2 - d.Y*s1*s2 + d.Z*c2,
		U: d.X*c1*c2 + d.Y*s1*c2 + d.Z*s2,
	}
}

//-------------------------------------------------------------------
// PosENU
//-------------------------------------------------------------------

type PosENU struct {
	E float64
	N float64
	U float64
}

// ToXYZ converts the local offset back to ECEF coordinates
func (enu PosENU) ToXYZ(base PosLLH) r3.Vector {
	s1, c1 := math.Sincos(base.Lon)
	s2, c2 := math.Sincos(base.Lat)
	d := r3.Vector{
		X: -enu.E*s1 - enu.N*c1*s2 + enu.U*c1*c2,
		Y: enu.E*c1 - enu.N*s1*s2 + enu.U*s1*c2,
		Z: enu.N*c2 + enu.U*s2,
	}
	return base.ToXYZ().Add(d)
}

// ToLLH converts the local offset back to a geodetic position
func (enu PosENU) ToLLH(base PosLLH) PosLLH {
	return XYZToLLH(enu.ToXYZ(base))
}

// ToPoint returns the ENU offset as a local point. 2D points drop the up component.
func (enu PosENU) ToPoint(dims int) (Point, error) {
	switch dims {
	case 2:
		return NewPoint2D(enu.E, enu.N), nil
	case 3:
		return NewPoint3D(enu.E, enu.N, enu.U), nil
	default:
		return nil, fmt.Errorf("%w: unsupported dimensions %d", ErrInvalidConfig, dims)
	}
}

// ENUFromPoint is the inverse of ToPoint. 2D points are placed at zero height.
func ENUFromPoint(p Point) PosENU {
	c := p.Coords()
	enu := PosENU{E: c[0], N: c[1]}
	if len(c) > 2 {
		enu.U = c[2]
	}
	return enu
}
