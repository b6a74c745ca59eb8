package transpile

// State is the mutable context of a single transpile run. It is created per
// document and never shared between runs.
type State struct {
	// FirstHeading is true until the first level-1 heading has rendered as
	// the bio header.
	FirstHeading bool
	// FirstParagraph is true until the bio paragraph has rendered.
	FirstParagraph bool
	// ListContext holds the table key of the list being rendered, or "".
	ListContext string
}

// NewState returns the state for the start of a document.
func NewState() *State {
	return &State{FirstHeading: true, FirstParagraph: true}
}

func (s *State) inList() bool {
	return s.ListContext != ""
}
