package lifecycle

// State is a sheet manager's position in the collect/generate lifecycle
type State string

const (
	StateRegistered State = "REGISTERED"
	StateCollected  State = "COLLECTED"
	StateGenerated  State = "GENERATED"
)

var validStates = map[State]bool{
	StateRegistered: true,
	StateCollected:  true,
	StateGenerated:  true,
}

// IsTerminal returns true once the manager has emitted its sheet
func (s State) IsTerminal() bool {
	return s == StateGenerated
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
