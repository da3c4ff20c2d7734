// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sampleconfig

import (
	_ "embed"
)

// sampleVisionConf is a string containing the commented example config for
// visiond.
//
//go:embed sample-vision.conf
var sampleVisionConf string

// sampleVisionctlConf is a string containing the commented example config for
// visionctl.
//
//go:embed sample-visionctl.conf
var sampleVisionctlConf string

// Visiond returns a string containing the commented example config for
// visiond.
func Visiond() string {
	return sampleVisionConf
}

// Visionctl returns a string containing the commented example config for
// visionctl.
func Visionctl() string {
	return sampleVisionctlConf
}
