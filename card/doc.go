// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package card persists tally payloads to the poll worker card.
//
// Writer.Save writes a TallyPayload, reads it back and compares TimeSaved.
// When that fails it writes again without TalliesByPrecinct; only if the
// smaller payload also fails does it return ErrVerificationFailed.
// MemoryCard backs tests and development, RedisCard talks to a card-reader
// bridge that mirrors the card in redis.
package card
