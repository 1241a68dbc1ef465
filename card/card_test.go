// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package card

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielhkuo/ballot-tally/compressed"
	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/tally"
)

func samplePayload() TallyPayload {
	return TallyPayload{
		MachineID:           "scanner-0001",
		TimeSaved:           1760000000000,
		IsLiveMode:          true,
		PrecinctSelection:   election.AllPrecincts(),
		PollsTransition:     "close_polls",
		TotalBallotsScanned: 3,
		Tally:               compressed.Tally{{2, 1, 0, 0}, {1, 1, 0, 0}, {1, 0}},
		Metadata:            compressed.Metadata{{0, 0, 3}, {1, 0, 2}, {0, 0, 1}},
		TalliesByPrecinct: map[string]compressed.Tally{
			"precinct-23": {{1, 1, 0, 0}, {1, 1, 0, 0}, {0, 0}},
			"precinct-20": {{1, 0, 0, 0}, {0, 0, 0, 0}, {1, 0}},
		},
		BallotCounts: tally.BallotCounts{",__ALL_PRECINCTS": {3, 0}},
	}
}

func marshalledSize(t *testing.T, p TallyPayload) int {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return len(data)
}

func TestSaveAndLoad(t *testing.T) {
	c := NewMemoryCard(0)
	w := NewWriter(c, nil)
	p := samplePayload()

	require.NoError(t, w.Save(context.Background(), p))
	assert.Equal(t, 1, c.Writes())

	loaded, err := Load(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestSaveRetriesWithoutPrecinctTallies(t *testing.T) {
	p := samplePayload()
	small := marshalledSize(t, p.WithoutPrecinctTallies())
	require.Less(t, small, marshalledSize(t, p))

	core, logs := observer.New(zapcore.InfoLevel)
	c := NewMemoryCard(small)
	w := NewWriter(c, zap.New(core))

	require.NoError(t, w.Save(context.Background(), p))
	assert.Equal(t, 1, c.Writes())

	loaded, err := Load(context.Background(), c)
	require.NoError(t, err)
	assert.Nil(t, loaded.TalliesByPrecinct)
	assert.Equal(t, p.Tally, loaded.Tally)
	assert.Equal(t, p.TimeSaved, loaded.TimeSaved)

	assert.Equal(t, 1, logs.FilterMessage("card write failed, retrying without precinct tallies").Len())
	saved := logs.FilterMessage("tally saved to card").All()
	require.Len(t, saved, 1)
	assert.Equal(t, false, saved[0].ContextMap()["precinct_tallies"])
}

func TestSaveFailsWhenCardTooSmall(t *testing.T) {
	c := NewMemoryCard(16)
	w := NewWriter(c, nil)

	err := w.Save(context.Background(), samplePayload())
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.ErrorIs(t, err, ErrCardFull)
	assert.Equal(t, 0, c.Writes())

	_, err = Load(context.Background(), c)
	assert.ErrorIs(t, err, ErrCardEmpty)
}

// staleCard accepts writes but always reads back what it held before.
type staleCard struct {
	old    []byte
	writes int
}

func (s *staleCard) Write(context.Context, []byte) error {
	s.writes++
	return nil
}

func (s *staleCard) Read(context.Context) ([]byte, error) {
	return s.old, nil
}

func TestSaveDetectsStaleReadBack(t *testing.T) {
	old := samplePayload()
	old.TimeSaved = 1
	data, err := json.Marshal(old)
	require.NoError(t, err)

	c := &staleCard{old: data}
	err = NewWriter(c, nil).Save(context.Background(), samplePayload())
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, err.Error(), "card holds payload saved at 1")
	assert.Equal(t, 2, c.writes)
}

func TestSaveRejectsUnparseableReadBack(t *testing.T) {
	c := &staleCard{old: []byte("garbage")}
	err := NewWriter(c, nil).Save(context.Background(), samplePayload())
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, err.Error(), "failed to parse card contents")
}

func TestMemoryCardCopiesData(t *testing.T) {
	c := NewMemoryCard(0)
	buf := []byte(`{"timeSaved":5}`)
	require.NoError(t, c.Write(context.Background(), buf))
	buf[0] = 'X'

	got, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"timeSaved":5}`, string(got))
}

func TestRedisCardUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	c := NewRedisCard(client, "")

	assert.Error(t, c.Ping(context.Background()))

	err := c.Write(context.Background(), []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set "+DefaultRedisKey)

	_, err = c.Read(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCardEmpty)

	err = NewWriter(c, nil).Save(context.Background(), samplePayload())
	assert.ErrorIs(t, err, ErrVerificationFailed)
}
