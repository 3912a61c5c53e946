package captrack

import "fmt"

// SellBehavior defines how a sell larger than the held quantity is applied.
type SellBehavior int

const (
	// Clamp limits a sell to the quantity currently held. Excess is ignored.
	Clamp SellBehavior = iota
	// AllowNegative applies the full sell and lets the position go short.
	AllowNegative
)

func (b SellBehavior) String() string {
	switch b {
	case Clamp:
		return "clamp"
	case AllowNegative:
		return "allow_negative"
	default:
		return "unknown"
	}
}

// ParseSellBehavior parses a string into a SellBehavior. The empty string is
// the default behavior.
func ParseSellBehavior(s string) (SellBehavior, error) {
	switch s {
	case "clamp", "":
		return Clamp, nil
	case "allow_negative":
		return AllowNegative, nil
	default:
		return 0, fmt.Errorf("unknown sell behavior: %q", s)
	}
}
