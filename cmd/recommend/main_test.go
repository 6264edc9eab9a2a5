package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datasetEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RECO_DATABASE_URL", "")
	t.Setenv("RECO_DATASET_PATH", filepath.Join("..", "..", "data", "seeds", "dataset.json"))
	t.Setenv("RECO_DISTANCE_SOURCE", "table")
	t.Setenv("RECO_DISTANCE_CACHE", "none")
	t.Setenv("RECO_LOG_LEVEL", "error")
}

func runJSON(t *testing.T, args ...string) ListSuggestionsResponse {
	t.Helper()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())

	var res ListSuggestionsResponse
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	return res
}

func TestRunDeduplicatesAcrossJourney(t *testing.T) {
	datasetEnv(t)

	res := runJSON(t, "Alton", "Froyle")

	require.Len(t, res.Suggestions, 2)
	assert.Equal(t, "West End Flower Farm", res.Suggestions[0].Destination)
	assert.Equal(t, "Froyle", res.Suggestions[0].Origin.ID)
	assert.Equal(t, 0, res.Suggestions[0].Distance)
	assert.Equal(t, "Watercress Line", res.Suggestions[1].Destination)
	assert.Equal(t, "Alton", res.Suggestions[1].Origin.ID)
	assert.Equal(t, 320, res.Suggestions[1].Distance)
}

func TestRunWithCSVDistancesAndConcurrency(t *testing.T) {
	datasetEnv(t)

	csv := filepath.Join(t.TempDir(), "distances.csv")
	require.NoError(t, os.WriteFile(csv, []byte("origin,destination,meters\nParis,Champ de Mars,10\n"), 0o600))
	t.Setenv("RECO_DATASET_DISTANCES_CSV", csv)
	t.Setenv("RECO_RECOMMEND_CONCURRENCY", "3")

	res := runJSON(t, "Paris", "Alton")

	names := make([]string, 0, len(res.Suggestions))
	for _, s := range res.Suggestions {
		names = append(names, s.Destination)
	}
	assert.Equal(t, []string{"Eiffel Tower", "Watercress Line", "Louvre", "West End Flower Farm"}, names)
}

func TestRunGeoDistances(t *testing.T) {
	datasetEnv(t)
	t.Setenv("RECO_DISTANCE_SOURCE", "geo")

	res := runJSON(t, "Paris")

	require.Len(t, res.Suggestions, 2)
	assert.Equal(t, "Louvre", res.Suggestions[0].Destination)
	assert.Equal(t, "Eiffel Tower", res.Suggestions[1].Destination)
	assert.Greater(t, res.Suggestions[1].Distance, res.Suggestions[0].Distance)
}

func TestRunRejectsBadInput(t *testing.T) {
	datasetEnv(t)
	var stdout, stderr bytes.Buffer

	assert.Error(t, run(context.Background(), nil, &stdout, &stderr))
	assert.Error(t, run(context.Background(), []string{"Atlantis"}, &stdout, &stderr))

	t.Setenv("RECO_DISTANCE_CACHE", "postgres")
	assert.Error(t, run(context.Background(), []string{"Paris"}, &stdout, &stderr))
}
