// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classify

import (
	"cmp"
	"slices"
	"strings"
)

// Result types
const (
	Accepted    = "Accepted"
	NeedsReview = "NeedsReview"
	Rejected    = "Rejected"
)

// Rejection reasons
const (
	RejectInvalidElectionHash = "invalid_election_hash"
	RejectInvalidTestMode     = "invalid_test_mode"
	RejectInvalidPrecinct     = "invalid_precinct"
	RejectUnreadable          = "unreadable"
	RejectUnknown             = "unknown"
)

// Result is the disposition of one sheet.
type Result struct {
	Type            string               `json:"type"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	Reasons         []AdjudicationReason `json:"reasons,omitempty"`
}

func accepted() Result {
	return Result{Type: Accepted}
}

func rejected(reason string) Result {
	return Result{Type: Rejected, RejectionReason: reason}
}

// rejectionOrder is checked top to bottom against both sides; the first
// page type found on either side decides the rejection.
var rejectionOrder = []struct {
	pageType string
	reason   string
}{
	{PageInvalidElectionHash, RejectInvalidElectionHash},
	{PageInvalidTestMode, RejectInvalidTestMode},
	{PageInvalidPrecinct, RejectInvalidPrecinct},
	{PageUnreadable, RejectUnreadable},
}

// Classify decides what to do with a sheet given both sides' interpretations.
// The result does not depend on which side was scanned first. Combinations
// not listed below are rejected as unknown.
//
//   - a rejectable page on either side: rejected, first match in rejectionOrder
//   - a BMD page with a blank back: accepted
//   - two hand-marked pages: accepted unless a side needs adjudication; if both
//     sides are blank the sheet needs review as a blank ballot, otherwise it
//     needs review for every non-blank reason either side reported
func Classify(front, back PageInterpretation) Result {
	for _, r := range rejectionOrder {
		if front.Type == r.pageType || back.Type == r.pageType {
			return rejected(r.reason)
		}
	}

	if isBmdWithBlank(front, back) || isBmdWithBlank(back, front) {
		return accepted()
	}

	if front.Type == PageInterpretedHmpb && back.Type == PageInterpretedHmpb {
		return classifyHmpb(front.Adjudication, back.Adjudication)
	}

	return rejected(RejectUnknown)
}

func isBmdWithBlank(a, b PageInterpretation) bool {
	return a.Type == PageInterpretedBmd && b.Type == PageBlank
}

func classifyHmpb(front, back AdjudicationInfo) Result {
	if !front.RequiresAdjudication && !back.RequiresAdjudication {
		return accepted()
	}

	if hasReason(front, ReasonBlankBallot) && hasReason(back, ReasonBlankBallot) {
		return Result{
			Type:    NeedsReview,
			Reasons: []AdjudicationReason{{Type: ReasonBlankBallot}},
		}
	}

	// BlankBallot on one side only is dropped; the sheet still needs review,
	// possibly with no reason left.
	reasons := make([]AdjudicationReason, 0, len(front.EnabledReasons)+len(back.EnabledReasons))
	for _, info := range [2]AdjudicationInfo{front, back} {
		for _, r := range info.EnabledReasons {
			if r.Type != ReasonBlankBallot {
				reasons = append(reasons, r)
			}
		}
	}
	return Result{Type: NeedsReview, Reasons: canonicalReasons(reasons)}
}

func hasReason(info AdjudicationInfo, reasonType string) bool {
	for _, r := range info.EnabledReasons {
		if r.Type == reasonType {
			return true
		}
	}
	return false
}

// canonicalReasons sorts and deduplicates reasons so that the union of two
// sides is the same in either order.
func canonicalReasons(reasons []AdjudicationReason) []AdjudicationReason {
	slices.SortFunc(reasons, compareReasons)
	return slices.CompactFunc(reasons, func(a, b AdjudicationReason) bool {
		return compareReasons(a, b) == 0
	})
}

func compareReasons(a, b AdjudicationReason) int {
	if c := cmp.Compare(a.Type, b.Type); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ContestID, b.ContestID); c != 0 {
		return c
	}
	return cmp.Compare(strings.Join(a.OptionIDs, "\x00"), strings.Join(b.OptionIDs, "\x00"))
}
