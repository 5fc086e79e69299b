package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/passenger"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/route"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.Weathers, 6)
	assert.Equal(t, "Clear", c.Weathers[0].Name)
	assert.Equal(t, 5, c.WeatherTable().IndexOf("Whiteout"))

	miles, err := c.RouteTable().Distance(route.Route{Start: "Harbor", End: "Frostgate"})
	require.NoError(t, err)
	assert.Equal(t, 20, miles)

	aurora, err := c.VehicleRegistry().Get("Aurora")
	require.NoError(t, err)
	assert.Equal(t, 2, aurora.WarmthLevelPercent())

	roster := c.CrewRoster()
	assert.Equal(t, []string{"c-oskar", "c-pavel"}, roster.Resting())
	pavel, err := roster.Get("c-pavel")
	require.NoError(t, err)
	assert.Equal(t, passenger.StatusCritical, pavel.Status)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "line.yaml")
	data := `
weathers:
  - name: Drizzle
    decisionMakingProbability: 0.1
stops:
  - name: North
    milesToNextStop: 30
  - name: South
trains:
  - name: Kestrel
    routeStart: North
    routeEnd: South
crew: []
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Drizzle", c.Weathers[0].Name)
	require.Len(t, c.Trains, 1)
	assert.Equal(t, "Kestrel", c.Trains[0].Name)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Trains)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/catalog.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read catalog file")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no weathers", "stops: [{name: A, milesToNextStop: 1}, {name: B}]"},
		{"probability out of range", "weathers: [{name: X, decisionMakingProbability: 1.5}]\nstops: [{name: A, milesToNextStop: 1}, {name: B}]"},
		{"single stop", "weathers: [{name: X}]\nstops: [{name: A}]"},
		{"train off the line", "weathers: [{name: X}]\nstops: [{name: A, milesToNextStop: 1}, {name: B}]\ntrains: [{name: T, routeStart: A, routeEnd: Z}]"},
		{"reversed route", "weathers: [{name: X}]\nstops: [{name: A, milesToNextStop: 1}, {name: B}]\ntrains: [{name: T, routeStart: B, routeEnd: A}]"},
		{"bad crew status", "weathers: [{name: X}]\nstops: [{name: A, milesToNextStop: 1}, {name: B}]\ncrew: [{id: c1, status: Frozen}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("weathers: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse catalog yaml")
}
