// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/ballot-tally/db"
	"github.com/danielhkuo/ballot-tally/scanner"
)

// SetupTestDB opens a fresh in-memory sqlite database with the full schema.
func SetupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.SQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Export is an export source serving a fixed body. Set Err to make Export fail.
type Export struct {
	mu    sync.Mutex
	Body  string
	Err   error
	Calls int
}

func (e *Export) Export(context.Context) (io.ReadCloser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}
	return io.NopCloser(strings.NewReader(e.Body)), nil
}

func (e *Export) Set(body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Body = body
}

// Scanner is a scripted scanner.Client. Statuses are returned in order, the
// last one repeating.
type Scanner struct {
	mu         sync.Mutex
	Statuses   []scanner.StatusReport
	Sheet      scanner.Sheet
	ScanErr    error
	AcceptErr  error
	ReturnErr  error
	Battery    scanner.BatteryInfo
	Accepted   int
	Returned   int
	Calibrated int
}

func (s *Scanner) GetStatus(context.Context) (scanner.StatusReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Statuses) == 0 {
		return scanner.StatusReport{Status: scanner.StatusWaitingForPaper}, nil
	}
	st := s.Statuses[0]
	if len(s.Statuses) > 1 {
		s.Statuses = s.Statuses[1:]
	}
	return st, nil
}

// SetStatus replaces the scripted statuses with a single repeating one.
func (s *Scanner) SetStatus(st scanner.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Statuses = []scanner.StatusReport{{Status: st}}
}

func (s *Scanner) Scan(context.Context) (scanner.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Sheet, s.ScanErr
}

func (s *Scanner) Accept(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AcceptErr != nil {
		return s.AcceptErr
	}
	s.Accepted++
	return nil
}

func (s *Scanner) Return(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReturnErr != nil {
		return s.ReturnErr
	}
	s.Returned++
	return nil
}

func (s *Scanner) Calibrate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calibrated++
	return nil
}

func (s *Scanner) GetBattery(context.Context) (scanner.BatteryInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Battery, nil
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t testing.TB, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t testing.TB, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// Clock returns a time source that starts at start and moves one second
// forward on every call, so snapshots taken back to back never share a
// timestamp.
func Clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}
