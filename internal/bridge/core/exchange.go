package core

import "context"

// ExchangeChannel is the boundary shared with the EFLS decision process.
type ExchangeChannel interface {
	// WriteOutbound replaces the outbound content with one snapshot.
	WriteOutbound(ctx context.Context, snap TelemetrySnapshot) error

	// ReadInbound returns the pending plan, or nil when there is none.
	ReadInbound(ctx context.Context) (*LandingPlan, error)

	// ClearInbound empties the inbound content.
	ClearInbound(ctx context.Context) error
}

// ChangeNotifier is implemented by channels that can signal new inbound content.
type ChangeNotifier interface {
	Changes() <-chan struct{}
}
