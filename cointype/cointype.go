// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cointype defines Vision's native asset unit (LAND) and the
// atomic-unit amount arithmetic used by the chain, mempool, and mining
// packages.
package cointype

import "fmt"

// AtomsPerLAND is the number of atomic units in one LAND.
const AtomsPerLAND = 1e8

// MaxLANDAtoms is the maximum number of LAND atoms that can ever exist,
// enforced as a sanity ceiling on individual transaction output values.
const MaxLANDAtoms = 21e6 * AtomsPerLAND

// Amount represents a quantity of LAND in atomic units (one LAND is
// 1e8 atoms).
type Amount int64

// MaxAmount is MaxLANDAtoms expressed as an Amount.
const MaxAmount = Amount(MaxLANDAtoms)

// IsValidAmount reports whether a is within the representable, non-negative
// range for a single transaction output.
func IsValidAmount(a Amount) bool {
	return a >= 0 && a <= MaxAmount
}

// String formats the amount in whole LAND with 8 decimal places.
func (a Amount) String() string {
	whole := int64(a) / AtomsPerLAND
	frac := int64(a) % AtomsPerLAND
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%08d LAND", whole, frac)
}

// ToLAND converts the amount to a floating point quantity of LAND.
func (a Amount) ToLAND() float64 {
	return float64(a) / AtomsPerLAND
}
