// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cvr

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/danielhkuo/ballot-tally/election"
)

// maxLineSize bounds a single record line. Write-in heavy records with many
// contests stay well below this.
const maxLineSize = 1 << 20

// SyntaxError is returned for a line that is not a JSON object.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: invalid JSON: %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Result is the outcome of parsing one non-blank line. Record is nil only when
// SyntaxErr is set; semantic problems are listed in Errors next to the record.
type Result struct {
	Line      int
	Record    *CastVoteRecord
	Errors    []string
	SyntaxErr error
}

// Valid reports whether the line parsed and passed every validation check.
func (r Result) Valid() bool {
	return r.SyntaxErr == nil && len(r.Errors) == 0
}

// Parser is a single-pass iterator over newline-delimited cast vote records.
//
//	p := cvr.NewParser(e, r)
//	for p.Next() {
//		res := p.Result()
//	}
//	if err := p.Err(); err != nil { ... }
type Parser struct {
	election *election.Election
	scanner  *bufio.Scanner
	line     int
	result   Result
	err      error
}

func NewParser(e *election.Election, r io.Reader) *Parser {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Parser{election: e, scanner: s}
}

// ParseString parses an in-memory export.
func ParseString(e *election.Election, s string) *Parser {
	return NewParser(e, strings.NewReader(s))
}

// Next advances to the next non-blank line. It returns false when the input
// is exhausted or a read error occurred; check Err afterwards.
func (p *Parser) Next() bool {
	if p.err != nil {
		return false
	}
	for p.scanner.Scan() {
		p.line++
		line := bytes.TrimSpace(p.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		p.result = p.parseLine(p.line, line)
		return true
	}
	if err := p.scanner.Err(); err != nil {
		p.err = fmt.Errorf("failed to read cast vote records at line %d: %w", p.line+1, err)
	}
	return false
}

func (p *Parser) Result() Result {
	return p.result
}

// Err returns the read error that stopped iteration, if any. Per-line
// syntax and validation problems are reported through Result instead.
func (p *Parser) Err() error {
	return p.err
}

// All drains the parser as a sequence. The sequence shares the parser's
// position, so ranging over it twice yields nothing the second time.
func (p *Parser) All() iter.Seq[Result] {
	return func(yield func(Result) bool) {
		for p.Next() {
			if !yield(p.Result()) {
				return
			}
		}
	}
}

func (p *Parser) parseLine(lineNumber int, line []byte) Result {
	res := Result{Line: lineNumber}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		res.SyntaxErr = &SyntaxError{Line: lineNumber, Err: err}
		return res
	}
	if fields == nil {
		res.SyntaxErr = &SyntaxError{Line: lineNumber, Err: fmt.Errorf("expected an object, got null")}
		return res
	}

	rec := &CastVoteRecord{BallotType: BallotTypeStandard, Votes: VotesDict{}}
	errs := &res.Errors

	ballotStyleID, styleOK := stringField(fields, "_ballotStyleId")
	rec.BallotStyleID = ballotStyleID
	if _, ok := p.election.BallotStyle(ballotStyleID); !styleOK || !ok {
		styleOK = false
		*errs = append(*errs, fmt.Sprintf("Ballot style %q in CVR is not in the election definition", ballotStyleID))
	}

	precinctID, _ := stringField(fields, "_precinctId")
	rec.PrecinctID = precinctID
	if _, ok := p.election.Precinct(precinctID); !ok {
		*errs = append(*errs, fmt.Sprintf("Precinct %q in CVR is not in the election definition", precinctID))
	}

	for _, key := range contestKeys(fields) {
		raw := fields[key]
		if isNull(raw) {
			continue
		}
		if !styleOK || !p.election.ContestValidForBallotStyle(ballotStyleID, key) {
			*errs = append(*errs, fmt.Sprintf("Contest %q in CVR is not in the election definition or is not a valid contest for ballot style %q", key, ballotStyleID))
		}
		var vote Vote
		if err := json.Unmarshal(raw, &vote); err != nil {
			*errs = append(*errs, fmt.Sprintf("Vote for contest %q in CVR must be a list of strings", key))
			continue
		}
		if vote == nil {
			vote = Vote{}
		}
		rec.Votes[key] = vote
	}

	if raw, ok := fields["_testBallot"]; !ok || isNull(raw) || json.Unmarshal(raw, &rec.TestBallot) != nil {
		*errs = append(*errs, "CVR test ballot flag must be true or false")
	}

	if raw, ok := fields["_pageNumber"]; ok && !isNull(raw) {
		page, err := parsePageNumber(raw)
		if err != nil {
			*errs = append(*errs, err.Error())
		} else {
			rec.PageNumber = &page
		}
	}

	var stringOK bool
	if rec.BallotID, stringOK = stringField(fields, "_ballotId"); !stringOK {
		*errs = append(*errs, "Ballot ID in CVR must be a string")
	}
	if rec.ScannerID, stringOK = stringField(fields, "_scannerId"); !stringOK {
		*errs = append(*errs, "Scanner ID in CVR must be a string")
	}

	if raw, ok := fields["_locale"]; ok && !isNull(raw) {
		locale, ok := parseLocale(raw)
		if !ok {
			*errs = append(*errs, "Locale in CVR must be an object with a string primary and optional string secondary")
		} else {
			rec.Locale = locale
		}
	}

	if raw, ok := fields["_ballotType"]; ok && !isNull(raw) {
		var bt string
		if err := json.Unmarshal(raw, &bt); err != nil || !knownBallotType(bt) {
			*errs = append(*errs, fmt.Sprintf("Ballot type in CVR must be one of %q, %q or %q", BallotTypeStandard, BallotTypeAbsentee, BallotTypeProvisional))
		} else {
			rec.BallotType = bt
		}
	}

	res.Record = rec
	return res
}

// contestKeys returns the non-metadata keys in sorted order so validation
// messages are stable across runs.
func contestKeys(fields map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if !strings.HasPrefix(key, "_") {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return "", false
	}
	return s, true
}

func parseLocale(raw json.RawMessage) (*Locale, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	primary, ok := stringField(fields, "primary")
	if !ok {
		return nil, false
	}
	locale := &Locale{Primary: primary}
	if sec, present := fields["secondary"]; present && !isNull(sec) {
		s, ok := stringField(fields, "secondary")
		if !ok {
			return nil, false
		}
		locale.Secondary = s
	}
	return locale, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func knownBallotType(bt string) bool {
	switch bt {
	case BallotTypeStandard, BallotTypeAbsentee, BallotTypeProvisional:
		return true
	}
	return false
}

// parsePageNumber accepts a JSON number that is a positive whole number.
// Quoted numbers are not numbers.
func parsePageNumber(raw json.RawMessage) (int, error) {
	var n json.Number
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) || json.Unmarshal(raw, &n) != nil {
		return 0, errors.New("Page number in CVR must be a number if it is set")
	}
	page, err := strconv.Atoi(n.String())
	if err != nil || page < 1 {
		return 0, fmt.Errorf("Page number in CVR must be a positive whole number, got %s", n)
	}
	return page, nil
}
