// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package card

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var (
	ErrVerificationFailed = errors.New("card write could not be verified")
	ErrCardEmpty          = errors.New("card holds no data")
	ErrCardFull           = errors.New("payload exceeds card capacity")
)

// Card is the storage on a poll worker card.
type Card interface {
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context) ([]byte, error)
}

// Writer saves tally payloads to a card and checks that they landed.
type Writer struct {
	card   Card
	logger *zap.Logger
}

func NewWriter(c Card, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{card: c, logger: logger.Named("card")}
}

// Save writes p and reads it back. If the write or the read-back fails, it
// writes once more without the per-precinct tallies. ErrVerificationFailed
// is returned only when both attempts fail.
func (w *Writer) Save(ctx context.Context, p TallyPayload) error {
	err := w.writeVerified(ctx, p)
	if err == nil {
		return nil
	}
	w.logger.Warn("card write failed, retrying without precinct tallies", zap.Error(err))

	if err := w.writeVerified(ctx, p.WithoutPrecinctTallies()); err != nil {
		w.logger.Error("card write failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	return nil
}

func (w *Writer) writeVerified(ctx context.Context, p TallyPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal tally payload: %w", err)
	}
	if err := w.card.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to write card: %w", err)
	}

	back, err := w.card.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read card back: %w", err)
	}
	var stored struct {
		TimeSaved int64 `json:"timeSaved"`
	}
	if err := json.Unmarshal(back, &stored); err != nil {
		return fmt.Errorf("failed to parse card contents: %w", err)
	}
	if stored.TimeSaved != p.TimeSaved {
		return fmt.Errorf("card holds payload saved at %d, wrote %d", stored.TimeSaved, p.TimeSaved)
	}

	w.logger.Info("tally saved to card",
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Bool("precinct_tallies", p.TalliesByPrecinct != nil))
	return nil
}

// Load reads the payload currently on the card.
func Load(ctx context.Context, c Card) (TallyPayload, error) {
	var p TallyPayload
	data, err := c.Read(ctx)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse card contents: %w", err)
	}
	return p, nil
}
