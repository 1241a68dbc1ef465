// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scanner

import "github.com/danielhkuo/ballot-tally/classify"

// Status is what the scanner hardware reports when polled.
type Status string

const (
	StatusWaitingForPaper Status = "WaitingForPaper"
	StatusReadyToScan     Status = "ReadyToScan"
	StatusScanning        Status = "Scanning"
	StatusReadyToAccept   Status = "ReadyToAccept"
	StatusNeedsReview     Status = "NeedsReview"
	StatusAccepted        Status = "Accepted"
	StatusRejected        Status = "Rejected"
	StatusJammed          Status = "Jammed"
	StatusError           Status = "Error"
	StatusDisconnected    Status = "Disconnected"
	StatusUnknown         Status = "Unknown"
)

// Known reports whether the status is one the state machine acts on or
// deliberately waits through. Error, Unknown and anything unrecognized are
// not known.
func (s Status) Known() bool {
	switch s {
	case StatusWaitingForPaper, StatusReadyToScan, StatusScanning, StatusReadyToAccept,
		StatusNeedsReview, StatusAccepted, StatusRejected, StatusJammed, StatusDisconnected:
		return true
	}
	return false
}

// StatusReport is the response to a status poll.
type StatusReport struct {
	Status         Status `json:"status"`
	BallotsCounted int    `json:"ballotsCounted"`
}

// Sheet is the scanner's interpretation of both sides of one sheet.
type Sheet struct {
	Front classify.PageInterpretation `json:"front"`
	Back  classify.PageInterpretation `json:"back"`
}

// BatteryInfo is reported by the hardware poll.
type BatteryInfo struct {
	Level       float64 `json:"level"`
	Discharging bool    `json:"discharging"`
}
