// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package main

import (
	"os"

	m "github.com/mkhts/gorssi"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		m.Log.Error(err)
		os.Exit(1)
	}
}
