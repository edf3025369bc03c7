package message

import "errors"

// Tier is one fallback stage in the selection chain.
type Tier int

const (
	TierCustom Tier = iota
	TierSheet
	TierRotation
	TierGenerated
	TierDefault
)

func (t Tier) String() string {
	switch t {
	case TierCustom:
		return "CUSTOM"
	case TierSheet:
		return "SHEET"
	case TierRotation:
		return "ROTATION"
	case TierGenerated:
		return "GENERATED"
	case TierDefault:
		return "DEFAULT"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets Tier render by name in JSON responses and audit records.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

var (
	// ErrNotConfigured means the tier's collaborator is absent.
	ErrNotConfigured = errors.New("not configured")
	// ErrNoMatch means the row source answered but no row applies today.
	ErrNoMatch = errors.New("no matching row")
	// ErrEmpty means the tier produced blank content.
	ErrEmpty = errors.New("empty content")
)

// Selection is the message chosen for one invocation.
type Selection struct {
	Text string `json:"text"`
	Tier Tier   `json:"tier"`
}

// Outcome is the tagged result of evaluating a single tier.
type Outcome struct {
	Tier Tier
	Text string
	Err  error
}

func (o Outcome) OK() bool { return o.Err == nil }
