// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

// CSV format of located RSSI readings, one reading per line:
//
//	type,id,freq_hz,rssi_dbm,std_db,c1,c2[,c3]
//
// type is "ap" or "beacon". id is the BSSID of an access point or
// "uuid/major/minor" of a beacon. std_db may be empty. The coordinates are
// x,y[,z] in meters, or lat,lon,hei (degrees, meters) in LLH mode.
// Lines starting with '#' are comments; a header line starting with "type" is skipped.

package gorssi

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CsvOpt contains the options of the readings CSV reader
type CsvOpt struct {
	Dims   int     // Dimensions of the reader positions (2 or 3)
	LLH    bool    // Coordinates are latitude, longitude, height
	Origin *PosLLH // Origin of the local ENU frame in LLH mode. nil: first reading
}

// NewCsvOpt creates CsvOpt with default values
func NewCsvOpt() *CsvOpt {
	return &CsvOpt{
		Dims:   2,     // Planar positions
		LLH:    false, // Local coordinates
		Origin: nil,   // First reading
	}
}

// ReadReadingsCSV reads readings from r. In LLH mode the returned origin is the
// base of the local frame the reader positions were converted to.
func ReadReadingsCSV(r io.Reader, opt *CsvOpt) (readings []Reading, origin *PosLLH, err error) {
	if opt == nil {
		opt = NewCsvOpt()
	}
	if opt.Dims != 2 && opt.Dims != 3 {
		return nil, nil, fmt.Errorf("%w: dimensions must be 2 or 3, got %d", ErrInvalidConfig, opt.Dims)
	}
	nc := opt.Dims
	if opt.LLH {
		nc = 3
		origin = opt.Origin
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	sources := map[string]RadioSource{}

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "type") {
			continue
		}
		if len(rec) != 5+nc {
			return nil, nil, fmt.Errorf("line %d: %d fields, expected %d", line, len(rec), 5+nc)
		}

		// Source (shared between readings of the same id)
		typ, err := ParseSourceType(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		freq, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: invalid frequency: %w", line, err)
		}
		key := rec[0] + "|" + rec[1] + "|" + rec[2]
		src, ok := sources[key]
		if !ok {
			src, err = NewSource(typ, strings.TrimSpace(rec[1]), freq)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			sources[key] = src
		}

		// Values
		rssi, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: invalid rssi: %w", line, err)
		}
		c := make([]float64, nc)
		for j := range c {
			c[j], err = strconv.ParseFloat(strings.TrimSpace(rec[5+j]), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: invalid coordinate: %w", line, err)
			}
		}

		// Position
		var pos Point
		if opt.LLH {
			llh := NewPosLLHDeg(c[0], c[1], c[2])
			if origin == nil {
				o := llh
				origin = &o
			}
			pos, err = llh.ToENU(*origin).ToPoint(opt.Dims)
		} else {
			pos, err = NewPoint(c...)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}

		var rd *RssiReading
		if s := strings.TrimSpace(rec[4]); s != "" {
			std, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: invalid standard deviation: %w", line, err)
			}
			rd, err = NewRssiReadingWithStdDev(src, rssi, pos, std)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
		} else {
			rd, err = NewRssiReading(src, rssi, pos)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		readings = append(readings, rd)
	}

	if len(readings) == 0 {
		return nil, nil, fmt.Errorf("%w: no readings", ErrInvalidConfig)
	}
	return readings, origin, nil
}

// WriteReadingsCSV writes readings with local coordinates, header first
func WriteReadingsCSV(w io.Writer, readings []Reading) error {
	cw := csv.NewWriter(w)
	dims := 2
	if len(readings) > 0 {
		dims = readings[0].Position().Dims()
	}
	header := []string{"type", "id", "freq_hz", "rssi_dbm", "std_db", "x", "y"}
	if dims == 3 {
		header = append(header, "z")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range readings {
		src := r.Source()
		std := ""
		if v, ok := r.RssiStdDev(); ok {
			std = strconv.FormatFloat(v, 'g', -1, 64)
		}
		rec := []string{
			src.Type().String(),
			src.ID(),
			strconv.FormatFloat(src.Frequency(), 'g', -1, 64),
			strconv.FormatFloat(r.RssiDbm(), 'g', -1, 64),
			std,
		}
		for _, v := range r.Position().Coords() {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
