// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import "github.com/visionchain/visiond/internal/verrors"

func ruleError(reason, description string) error {
	return verrors.Reject(reason, description)
}

// orphanError marks a block whose parent is not yet known: transient,
// since the block may connect once sync catches up.
func orphanError() error {
	return verrors.Transient("orphan_parent_unknown", "block parent is not on the canonical chain")
}
