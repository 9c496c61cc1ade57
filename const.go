// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

package gorssi

const (
	PI   = 3.1415926535897932  // Pi
	C    = 2.99792458e8        // Speed of light [m/s]
	Re   = 6378137.0           // Earth's radius [m]
	Fe   = 1.0 / 298.257223563 // Earth's flattening
	LN10 = 2.302585092994046   // Natural logarithm of 10
)

// Carrier frequencies of common radio sources [Hz]
const (
	WIFI_2G4 = 2.4e9 // Wi-Fi 2.4 GHz band
	WIFI_5G  = 5.0e9 // Wi-Fi 5 GHz band
	BLE      = 2.4e9 // Bluetooth Low Energy advertising channels
)

// Defaults of the estimator
const (
	DEFAULT_PATH_LOSS_EXPONENT = 2.0  // Free space path loss exponent
	DEFAULT_POWER_DBM          = 0.0  // Transmitted power used when no initial value is given [dBm] (1 mW)
	MIN_DISTANCE               = 1e-9 // Distances below this are treated as a reader located on the emitter [m]
	MIN_RSSI_STD_DEV           = 1e-3 // Lower bound of RSSI standard deviation used for weighting [dB]
)
