// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/card"
	"github.com/danielhkuo/ballot-tally/compressed"
	"github.com/danielhkuo/ballot-tally/cvr"
	"github.com/danielhkuo/ballot-tally/db"
	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/tally"
)

// ExportSource delivers the scanner's cast vote record export.
type ExportSource interface {
	Export(ctx context.Context) (io.ReadCloser, error)
}

// TallyPersister stores a computed snapshot. A persister error fails the
// polls transition.
type TallyPersister interface {
	PersistTally(ctx context.Context, s *Snapshot) error
}

// Snapshot is the tally computed at one polls transition.
type Snapshot struct {
	Transition  string
	Selection   election.PrecinctSelection
	Payload     card.TallyPayload
	Full        *tally.FullElectionTally
	Diagnostics []cvr.Result
	InputsHash  string
	BallotCount int
	StoredID    string
}

// TabulatorOptions configure a Tabulator.
type TabulatorOptions struct {
	MachineID string
	LiveMode  bool
	Policy    cvr.Policy
	Now       func() time.Time
}

// Tabulator runs the tally pipeline: export, parse, aggregate, encode,
// persist.
type Tabulator struct {
	election   *election.Election
	source     ExportSource
	opts       TabulatorOptions
	persisters []TallyPersister
	logger     *zap.Logger
}

func NewTabulator(e *election.Election, source ExportSource, opts TabulatorOptions, logger *zap.Logger, persisters ...TallyPersister) *Tabulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tabulator{
		election:   e,
		source:     source,
		opts:       opts,
		persisters: persisters,
		logger:     logger.Named("tabulator"),
	}
}

// Compute tallies the current export without persisting anything.
func (t *Tabulator) Compute(ctx context.Context, transition string, sel election.PrecinctSelection) (*Snapshot, error) {
	body, err := t.source.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cast vote record export: %w", err)
	}
	defer body.Close()

	records, diagnostics, err := cvr.Collect(cvr.NewParser(t.election, body), t.opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to read cast vote record export: %w", err)
	}
	if len(diagnostics) > 0 {
		t.logger.Warn("cast vote records with problems",
			zap.Int("count", len(diagnostics)),
			zap.Int("first_line", diagnostics[0].Line))
	}

	records = slices.DeleteFunc(records, func(r *cvr.CastVoteRecord) bool {
		return !sel.Includes(r.PrecinctID)
	})
	full := tally.ComputeFullElectionTally(t.election, records)

	snap := &Snapshot{
		Transition:  transition,
		Selection:   sel,
		Full:        full,
		Diagnostics: diagnostics,
		InputsHash:  inputsHash(records),
		BallotCount: full.Overall.NumberOfBallots,
	}
	snap.Payload = card.TallyPayload{
		MachineID:           t.opts.MachineID,
		TimeSaved:           t.opts.Now().UnixMilli(),
		IsLiveMode:          t.opts.LiveMode,
		PrecinctSelection:   sel,
		PollsTransition:     transition,
		TotalBallotsScanned: full.Overall.NumberOfBallots,
		Tally:               compressed.Encode(t.election, full.Overall),
		Metadata:            compressed.EncodeMetadata(t.election, full.Overall),
		TalliesByPrecinct:   t.precinctTallies(full, sel),
		BallotCounts:        full.BallotCounts,
	}
	return snap, nil
}

// Run computes the snapshot and hands it to every persister in order.
func (t *Tabulator) Run(ctx context.Context, transition string, sel election.PrecinctSelection) (*Snapshot, error) {
	snap, err := t.Compute(ctx, transition, sel)
	if err != nil {
		return nil, err
	}
	for _, p := range t.persisters {
		if err := p.PersistTally(ctx, snap); err != nil {
			return nil, err
		}
	}
	t.logger.Info("tally snapshot taken",
		zap.String("transition", transition),
		zap.String("precincts", sel.String()),
		zap.Int("ballots", snap.BallotCount))
	return snap, nil
}

func (t *Tabulator) precinctTallies(full *tally.FullElectionTally, sel election.PrecinctSelection) map[string]compressed.Tally {
	out := make(map[string]compressed.Tally)
	for _, p := range t.election.Precincts {
		if sel.Includes(p.ID) {
			out[p.ID] = compressed.Encode(t.election, full.ByPrecinct[p.ID])
		}
	}
	return out
}

// inputsHash identifies the set of records a snapshot was computed from,
// independent of export order.
func inputsHash(records []*cvr.CastVoteRecord) string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.BallotID
	}
	slices.Sort(ids)
	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CardPersister writes the payload to the poll worker card. A card that
// cannot be verified is logged and does not fail the transition.
type CardPersister struct {
	Writer *card.Writer
	Logger *zap.Logger
}

func (c CardPersister) PersistTally(ctx context.Context, s *Snapshot) error {
	err := c.Writer.Save(ctx, s.Payload)
	if errors.Is(err, card.ErrVerificationFailed) {
		if c.Logger != nil {
			c.Logger.Error("tally not saved to card", zap.String("transition", s.Transition), zap.Error(err))
		}
		return nil
	}
	return err
}

// StorePersister appends the snapshot to the snapshot store.
type StorePersister struct {
	Store *db.SnapshotStore
}

func (p StorePersister) PersistTally(ctx context.Context, s *Snapshot) error {
	payload, err := json.Marshal(s.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal tally payload: %w", err)
	}
	selection, err := json.Marshal(s.Selection)
	if err != nil {
		return fmt.Errorf("failed to marshal precinct selection: %w", err)
	}
	row := &db.Snapshot{
		MachineID:         s.Payload.MachineID,
		PollsTransition:   s.Transition,
		PrecinctSelection: string(selection),
		BallotCount:       s.BallotCount,
		InputsHash:        s.InputsHash,
		ComputedAt:        time.UnixMilli(s.Payload.TimeSaved).UTC(),
		Payload:           payload,
	}
	if err := p.Store.Save(ctx, row); err != nil {
		return err
	}
	s.StoredID = row.ID
	return nil
}
