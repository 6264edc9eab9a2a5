package domain

// A point of interest worth recommending, anchored to a Location.
type FeaturedDestination struct {
	Name     string
	Location Location
}

// Comparable identity of a FeaturedDestination.
// Two destinations with equal keys are interchangeable for de-duplication.
type DestinationKey struct {
	Name       string
	LocationID LocationID
}

func NewFeaturedDestination(name string, location Location) FeaturedDestination {
	return FeaturedDestination{Name: name, Location: location}
}

func (d FeaturedDestination) Key() DestinationKey {
	return DestinationKey{Name: d.Name, LocationID: d.Location.ID}
}

// Equal compares destinations by value (name and location identity).
func (d FeaturedDestination) Equal(other FeaturedDestination) bool {
	return d.Key() == other.Key()
}

// A recommendation emitted for a journey: the journey Location the
// destination is reachable from and the distance between the two, in
// whatever unit the distance finder uses (meters for the bundled finders).
type FeaturedDestinationSuggestion struct {
	Origin      Location
	Destination FeaturedDestination
	Distance    int
}

func NewFeaturedDestinationSuggestion(origin Location, destination FeaturedDestination, distance int) FeaturedDestinationSuggestion {
	return FeaturedDestinationSuggestion{Origin: origin, Destination: destination, Distance: distance}
}
