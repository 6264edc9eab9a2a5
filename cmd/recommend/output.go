package main

import (
	"encoding/json"
	"fmt"
	"io"
	"recommendation-service/internal/domain"
)

type LocationResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type SuggestionResponse struct {
	Origin              LocationResponse `json:"origin"`
	Destination         string           `json:"destination"`
	DestinationLocation LocationResponse `json:"destination_location"`
	Distance            int              `json:"distance"`
}

type ListSuggestionsResponse struct {
	Suggestions []SuggestionResponse `json:"suggestions"`
}

func toResponse(suggestions []domain.FeaturedDestinationSuggestion) ListSuggestionsResponse {
	res := ListSuggestionsResponse{Suggestions: make([]SuggestionResponse, 0, len(suggestions))}
	for _, s := range suggestions {
		res.Suggestions = append(res.Suggestions, SuggestionResponse{
			Origin:              toLocationResponse(s.Origin),
			Destination:         s.Destination.Name,
			DestinationLocation: toLocationResponse(s.Destination.Location),
			Distance:            s.Distance,
		})
	}
	return res
}

func toLocationResponse(l domain.Location) LocationResponse {
	return LocationResponse{ID: string(l.ID), Name: l.Name, Address: l.Address}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
