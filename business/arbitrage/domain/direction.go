// Package domain contains the core domain types for the arbitrage context.
package domain

// Direction names which of the two cycles through a triple was profitable.
type Direction string

const (
	// DirectionForward converts along S1 -> S2 -> S3, yield (p1/p2)*p3.
	DirectionForward Direction = "FORWARD"

	// DirectionRotated converts along S2 -> S3 -> S1, yield (p2/p3)*p1.
	DirectionRotated Direction = "ROTATED"
)

// String returns a human-readable description of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward (S1 → S2 → S3)"
	case DirectionRotated:
		return "rotated (S2 → S3 → S1)"
	default:
		return "unknown"
	}
}
