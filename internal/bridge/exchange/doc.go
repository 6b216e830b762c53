// Package exchange implements the channel shared with the EFLS decision process.
//
// Both directions carry an AircraftLink protobuf message as defined in
// api/proto/efls/v1/link.proto. The bridge writes a message with exactly one
// aircraft; EFLS writes a message with the waypoint groups of a landing plan.
// An empty inbound payload means no plan is pending.
package exchange
