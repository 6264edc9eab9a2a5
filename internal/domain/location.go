package domain

// Opaque, equality-comparable identifier of a Location.
type LocationID string

// Represents a place a traveler can visit or be recommended.
// Two Locations are the same place iff their IDs are equal; keeping IDs
// unique is the caller's responsibility. Name and Address are display-only.
type Location struct {
	ID          LocationID
	Name        string
	Address     string
	Coordinates *Coordinates
}

func NewLocation(id LocationID, name string, address string) Location {
	return Location{ID: id, Name: name, Address: address}
}

// Return a copy of the location anchored at the given coordinates.
func (l Location) WithCoordinates(lon, lat float64) Location {
	l.Coordinates = &Coordinates{Lon: lon, Lat: lat}
	return l
}

// Equal reports whether both locations share the same identifier.
func (l Location) Equal(other Location) bool {
	return l.ID == other.ID
}
