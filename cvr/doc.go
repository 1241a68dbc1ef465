// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cvr parses cast vote record exports.

An export is newline-delimited JSON, one record per sheet. Parser reads it in
a single pass and validates each record against the election definition:

	p := cvr.NewParser(e, r)
	for p.Next() {
		res := p.Result() // Line, Record, SyntaxErr, Errors
	}
	if err := p.Err(); err != nil { ... }

Collect drains a parser under a Policy. ReportOnly keeps records with
validation errors; DropInvalid leaves them out. Either way every problem line
is returned for reporting.
*/
package cvr
