// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classify

// Page interpretation types reported by the scanner for one side of a sheet.
const (
	PageBlank               = "BlankPage"
	PageInterpretedBmd      = "InterpretedBmdPage"
	PageInterpretedHmpb     = "InterpretedHmpbPage"
	PageInvalidElectionHash = "InvalidElectionHashPage"
	PageInvalidTestMode     = "InvalidTestModePage"
	PageInvalidPrecinct     = "InvalidPrecinctPage"
	PageUnreadable          = "UnreadablePage"
)

// Adjudication reason types
const (
	ReasonBlankBallot           = "BlankBallot"
	ReasonOvervote              = "Overvote"
	ReasonUndervote             = "Undervote"
	ReasonUninterpretableBallot = "UninterpretableBallot"
	ReasonMarginalMark          = "MarginalMark"
	ReasonWriteIn               = "WriteIn"
)

// AdjudicationReason explains why a hand-marked page needs review. ContestID
// and OptionIDs are empty for sheet-wide reasons such as a blank ballot.
type AdjudicationReason struct {
	Type      string   `json:"type"`
	ContestID string   `json:"contestId,omitempty"`
	OptionIDs []string `json:"optionIds,omitempty"`
}

// AdjudicationInfo is the scanner's verdict on a hand-marked page.
type AdjudicationInfo struct {
	RequiresAdjudication bool                 `json:"requiresAdjudication"`
	EnabledReasons       []AdjudicationReason `json:"enabledReasonInfos"`
}

// PageInterpretation is the scanner's reading of one side of a sheet.
// Adjudication is only meaningful for PageInterpretedHmpb.
type PageInterpretation struct {
	Type         string           `json:"type"`
	Adjudication AdjudicationInfo `json:"adjudicationInfo,omitempty"`
}
