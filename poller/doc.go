// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package poller runs a periodic check with a re-entrancy guard.

	p := poller.New("scanner-status", 500*time.Millisecond, checkStatus, logger)
	p.Start(ctx)
	defer p.Stop()

At most one call runs at a time; a tick that arrives while a call is in
flight is dropped. Disable and Enable pause polling without tearing down the
schedule, which lets a caller run a manual operation without racing the next
periodic call. Tick runs a poll immediately and is what tests drive.
*/
package poller
