package lifecycle

// Trigger is a lifecycle phase request
type Trigger string

const (
	TriggerCollect  Trigger = "COLLECT"
	TriggerGenerate Trigger = "GENERATE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
