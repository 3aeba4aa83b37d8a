package mdview

// Event is a sealed interface representing a semantic event delivered
// over the document-to-host channel. Transport faults surface as errors
// from DocumentPort methods, not as events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventHeightUpdated carries a fresh whole-document height measurement.
type EventHeightUpdated struct {
	Height float64
}

func (EventHeightUpdated) event() {}

// EventDetailsToggled reports an expand/collapse state change of a
// collapsible region. InnerHeight is the region's cached expanded
// content height so the host can apply a delta without re-measuring
// the whole document; it is 0 for a region that was never open.
type EventDetailsToggled struct {
	RegionID    string
	Open        bool
	InnerHeight float64
}

func (EventDetailsToggled) event() {}

// EventLinkActivated reports a navigation-type interaction targeting an
// external URL.
type EventLinkActivated struct {
	URL string
}

func (EventLinkActivated) event() {}

// Interface compliance checks.
var (
	_ Event = EventHeightUpdated{}
	_ Event = EventDetailsToggled{}
	_ Event = EventLinkActivated{}
)
