// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package mpscq

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrent stress tests: the detector cannot see
// the happens-before edges established through the cross-variable
// index/slot orderings and reports false positives.
const RaceEnabled = true
