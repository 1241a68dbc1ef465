// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command tabulate tallies cast vote record export files offline.
//
//	tabulate -election election.json [-drop-invalid] [-precinct id] export1.jsonl export2.jsonl ...
//
// Files are parsed concurrently and tallied in argument order. The report
// lists every contest with its counts and the ballots from each scanner, and
// ends with the compressed tally and its QR text.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/alitto/pond/v2"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/compressed"
	"github.com/danielhkuo/ballot-tally/cvr"
	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/logging"
	"github.com/danielhkuo/ballot-tally/tally"
)

type options struct {
	electionPath string
	dropInvalid  bool
	precinctID   string
	workers      int
	files        []string
}

type parsedFile struct {
	path        string
	records     []*cvr.CastVoteRecord
	diagnostics []cvr.Result
}

func main() {
	logger, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts, os.Stdout, logger); err != nil {
		logger.Error("tabulation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func parseArgs(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("tabulate", flag.ContinueOnError)
	fs.StringVar(&opts.electionPath, "election", "", "Election definition JSON")
	fs.BoolVar(&opts.dropInvalid, "drop-invalid", false, "Exclude records with validation errors")
	fs.StringVar(&opts.precinctID, "precinct", "", "Only tally this precinct")
	fs.IntVar(&opts.workers, "workers", runtime.NumCPU(), "Files parsed at once")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.files = fs.Args()
	if opts.electionPath == "" {
		return opts, fmt.Errorf("-election is required")
	}
	if len(opts.files) == 0 {
		return opts, fmt.Errorf("at least one export file is required")
	}
	if opts.workers < 1 {
		opts.workers = 1
	}
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer, logger *zap.Logger) error {
	e, err := election.LoadFile(opts.electionPath)
	if err != nil {
		return err
	}
	sel := election.AllPrecincts()
	if opts.precinctID != "" {
		sel = election.SinglePrecinct(opts.precinctID)
		if err := e.ValidateSelection(sel); err != nil {
			return err
		}
	}
	policy := cvr.ReportOnly
	if opts.dropInvalid {
		policy = cvr.DropInvalid
	}

	files, err := parseFiles(ctx, e, opts.files, policy, opts.workers)
	if err != nil {
		return err
	}

	var records []*cvr.CastVoteRecord
	for _, f := range files {
		for _, d := range f.diagnostics {
			logger.Warn("cast vote record problem",
				zap.String("file", f.path),
				zap.Int("line", d.Line),
				zap.Strings("errors", diagnosticMessages(d)))
		}
		for _, r := range f.records {
			if sel.Includes(r.PrecinctID) {
				records = append(records, r)
			}
		}
	}

	full := tally.ComputeFullElectionTally(e, records)
	return report(out, e, sel, full)
}

// parseFiles parses every file on a worker pool. Results come back in
// argument order.
func parseFiles(ctx context.Context, e *election.Election, paths []string, policy cvr.Policy, workers int) ([]parsedFile, error) {
	pool := pond.NewResultPool[parsedFile](workers)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	for _, path := range paths {
		group.SubmitErr(func() (parsedFile, error) {
			return parseFile(e, path, policy)
		})
	}
	return group.Wait()
}

func parseFile(e *election.Election, path string, policy cvr.Policy) (parsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return parsedFile{}, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	records, diagnostics, err := cvr.Collect(cvr.NewParser(e, f), policy)
	if err != nil {
		return parsedFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parsedFile{path: path, records: records, diagnostics: diagnostics}, nil
}

func diagnosticMessages(r cvr.Result) []string {
	if r.SyntaxErr != nil {
		return []string{r.SyntaxErr.Error()}
	}
	return r.Errors
}

func report(out io.Writer, e *election.Election, sel election.PrecinctSelection, full *tally.FullElectionTally) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(out, "%s (%s)\n", e.Title, sel)
	fmt.Fprintf(out, "ballots counted: %s\n\n", humanize.Comma(int64(full.Overall.NumberOfBallots)))

	for _, contest := range e.Contests {
		ct, _ := full.Overall.Contest(contest.ID)
		fmt.Fprintf(tw, "%s\t\t\n", contest.Title)
		for _, opt := range ct.Tallies {
			fmt.Fprintf(tw, "\t%s\t%s\t\n", optionLabel(contest, opt), humanize.Comma(int64(opt.Count)))
		}
		fmt.Fprintf(tw, "\tundervotes\t%s\t\n", humanize.Comma(int64(ct.Metadata.Undervotes)))
		fmt.Fprintf(tw, "\tovervotes\t%s\t\n", humanize.Comma(int64(ct.Metadata.Overvotes)))
		fmt.Fprintf(tw, "\t\t\t\n")
	}
	fmt.Fprintf(tw, "Ballots by scanner\t\t\n")
	for _, id := range full.ScannerIDs() {
		fmt.Fprintf(tw, "\t%s\t%s\t\n", id, humanize.Comma(int64(full.ByScanner[id].NumberOfBallots)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	ct := compressed.Encode(e, full.Overall)
	data, err := json.Marshal(ct)
	if err != nil {
		return fmt.Errorf("failed to marshal compressed tally: %w", err)
	}
	qr, err := compressed.EncodeQR(ct)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "compressed: %s\n", data)
	fmt.Fprintf(out, "qr: %s\n", qr)
	return nil
}

func optionLabel(contest election.Contest, opt tally.ContestOptionTally) string {
	if opt.IsWriteIn {
		return election.WriteInCandidate.Name
	}
	for _, c := range contest.Candidates {
		if c.ID == opt.OptionID {
			return c.Name
		}
	}
	return opt.OptionID
}
