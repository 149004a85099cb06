package domain

import "context"

type Service interface {
	// CheckIn decides one admission attempt. It never returns an error:
	// every failure mode collapses into a rejection verdict so the kiosk
	// always has something to show.
	CheckIn(ctx context.Context, rawPhone string) Verdict
}
