package node

// TriState is the explicit three-valued parameter used by Up/Down/Sync's
// write, remove, and up arguments: Auto lets the operation decide from
// observed remote state, Force always takes the affirmative action, Skip
// always takes the negative one. Modeling this as a sum type rather than a
// nullable bool keeps "decide for me" distinct from "false" at every call
// site.
type TriState int

const (
	Auto TriState = iota
	Force
	Skip
)

func (t TriState) String() string {
	switch t {
	case Force:
		return "force"
	case Skip:
		return "skip"
	default:
		return "auto"
	}
}

// BoolPtr converts a *bool, as used at the config/CLI boundary for a tri-
// state flag (nil = unset), into a TriState.
func BoolPtr(b *bool) TriState {
	if b == nil {
		return Auto
	}
	if *b {
		return Force
	}
	return Skip
}
