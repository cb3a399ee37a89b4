package domain

// TapAction is the role a tap played, inferred from ride state rather
// than transmitted by the reader.
type TapAction string

const (
	TapActionEntry TapAction = "ENTRY"
	TapActionExit  TapAction = "EXIT"
)

// Coordinates is a lat/lng pair supplied by a reader or a routing
// collaborator.
type Coordinates struct {
	Lat float64
	Lng float64
}
