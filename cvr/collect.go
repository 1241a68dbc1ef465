// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cvr

// Policy decides what Collect does with records that failed validation.
type Policy int

const (
	// ReportOnly keeps every parseable record and reports its problems.
	ReportOnly Policy = iota
	// DropInvalid excludes records with validation errors from the result.
	DropInvalid
)

// Collect drains p. Lines with syntax errors never yield a record; lines with
// validation errors are kept or dropped according to policy. Every line with
// a problem is returned in diagnostics either way.
func Collect(p *Parser, policy Policy) (records []*CastVoteRecord, diagnostics []Result, err error) {
	for res := range p.All() {
		if !res.Valid() {
			diagnostics = append(diagnostics, res)
		}
		if res.Record == nil {
			continue
		}
		if policy == DropInvalid && len(res.Errors) > 0 {
			continue
		}
		records = append(records, res.Record)
	}
	return records, diagnostics, p.Err()
}
