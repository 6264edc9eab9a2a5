package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"recommendation-service/internal/domain"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jszwec/csvutil"
)

var ErrInvalidDataset = errors.New("invalid dataset")

type LocationRecord struct {
	ID      string   `json:"id" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	Address string   `json:"address"`
	Lon     *float64 `json:"lon" validate:"omitempty,longitude"`
	Lat     *float64 `json:"lat" validate:"omitempty,latitude"`
}

type FeaturedRecord struct {
	Origin   string `json:"origin" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Location string `json:"location" validate:"required"`
}

type DistanceRecord struct {
	Origin      string `json:"origin" csv:"origin" validate:"required"`
	Destination string `json:"destination" csv:"destination" validate:"required"`
	Meters      int    `json:"meters" csv:"meters"`
}

// Dataset is the on-disk description of locations, the featured destinations
// reachable from each, and known distances between them.
// Featured entries for one origin keep their file order.
type Dataset struct {
	Locations []LocationRecord `json:"locations" validate:"dive"`
	Featured  []FeaturedRecord `json:"featured" validate:"dive"`
	Distances []DistanceRecord `json:"distances" validate:"dive"`
}

// Load and validate a JSON dataset file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load dataset: open %q: %w", path, err)
	}
	defer f.Close()

	ds, err := DecodeDataset(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %q: %w", path, err)
	}
	return ds, nil
}

// LoadDatasetFiles loads the JSON dataset and, when csvPath is set, appends
// the distances listed in that CSV file.
func LoadDatasetFiles(path, csvPath string) (*Dataset, error) {
	ds, err := LoadDataset(path)
	if err != nil {
		return nil, err
	}
	if csvPath == "" {
		return ds, nil
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: open %q: %w", csvPath, err)
	}
	defer f.Close()

	if err := ds.AppendDistancesCSV(f); err != nil {
		return nil, fmt.Errorf("load dataset %q: %w", csvPath, err)
	}
	return ds, nil
}

func DecodeDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Append distances read from CSV (header: origin,destination,meters).
// Later rows override earlier entries for the same pair when tables are built.
func (ds *Dataset) AppendDistancesCSV(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read distances csv: %w", err)
	}

	var rows []DistanceRecord
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode distances csv: %w", err)
	}

	ds.Distances = append(ds.Distances, rows...)
	return ds.Validate()
}

// Validate checks field constraints and that every reference names a known location.
// IDs are compared exactly, so location IDs may not carry surrounding whitespace.
func (ds *Dataset) Validate() error {
	if err := validator.New().Struct(ds); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	known := make(map[string]struct{}, len(ds.Locations))
	for i, l := range ds.Locations {
		id := l.ID
		if strings.TrimSpace(id) != id {
			return fmt.Errorf("%w: location #%d: id %q has surrounding whitespace", ErrInvalidDataset, i+1, id)
		}
		if _, dup := known[id]; dup {
			return fmt.Errorf("%w: location #%d: duplicate id %q", ErrInvalidDataset, i+1, id)
		}
		known[id] = struct{}{}
	}

	for i, f := range ds.Featured {
		for _, ref := range []string{f.Origin, f.Location} {
			if _, ok := known[ref]; !ok {
				return fmt.Errorf("%w: featured #%d %q: unknown location %q", ErrInvalidDataset, i+1, f.Name, ref)
			}
		}
	}

	for i, d := range ds.Distances {
		if d.Meters < 0 {
			return fmt.Errorf("%w: distance #%d: negative meters %d", ErrInvalidDataset, i+1, d.Meters)
		}
		for _, ref := range []string{d.Origin, d.Destination} {
			if _, ok := known[ref]; !ok {
				return fmt.Errorf("%w: distance #%d: unknown location %q", ErrInvalidDataset, i+1, ref)
			}
		}
	}

	return nil
}

// Return every location in the dataset keyed by ID.
func (ds *Dataset) LocationIndex() map[domain.LocationID]domain.Location {
	out := make(map[domain.LocationID]domain.Location, len(ds.Locations))
	for _, l := range ds.Locations {
		out[domain.LocationID(l.ID)] = l.toDomain()
	}
	return out
}

func (ds *Dataset) DestinationTable() *DestinationTable {
	index := ds.LocationIndex()
	entries := make(map[domain.LocationID][]domain.FeaturedDestination)
	for _, f := range ds.Featured {
		origin := domain.LocationID(f.Origin)
		entries[origin] = append(entries[origin], domain.NewFeaturedDestination(f.Name, index[domain.LocationID(f.Location)]))
	}
	return NewDestinationTable(entries)
}

func (ds *Dataset) DistanceTable(fallback int) *DistanceTable {
	pairs := make([]DistancePair, 0, len(ds.Distances))
	for _, d := range ds.Distances {
		pairs = append(pairs, DistancePair{
			From:     domain.LocationID(d.Origin),
			To:       domain.LocationID(d.Destination),
			Distance: d.Meters,
		})
	}
	return NewDistanceTable(pairs, fallback)
}

// FindLocations resolves IDs against the dataset, preserving the requested order.
func (ds *Dataset) FindLocations(_ context.Context, ids []domain.LocationID) ([]domain.Location, error) {
	index := ds.LocationIndex()
	out := make([]domain.Location, 0, len(ids))
	for _, id := range ids {
		l, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("find locations: unknown location %q", id)
		}
		out = append(out, l)
	}
	return out, nil
}

func (l LocationRecord) toDomain() domain.Location {
	loc := domain.NewLocation(domain.LocationID(l.ID), l.Name, l.Address)
	if l.Lon != nil && l.Lat != nil {
		loc = loc.WithCoordinates(*l.Lon, *l.Lat)
	}
	return loc
}
