// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package classify decides whether a scanned sheet is accepted, sent to
// review, or rejected, from the interpretations of its two sides.
package classify
