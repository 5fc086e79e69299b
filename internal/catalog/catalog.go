// Package catalog loads the static game data: weathers, the rail line,
// trains and crew. A default catalog is compiled in; a YAML file on disk
// replaces it entirely.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/crew"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/passenger"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/route"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
	"github.com/MRamiBalles/FrostlineExpress/internal/domain/weather"
)

//go:embed default.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the decoded game data.
type Catalog struct {
	Weathers []weather.Weather `yaml:"weathers"`
	Stops    []route.Stop      `yaml:"stops"`
	Trains   []vehicle.Train   `yaml:"trains"`
	Crew     []CrewEntry       `yaml:"crew"`
}

// CrewEntry is a crew member as written in YAML, with the status by name.
type CrewEntry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Status  string `yaml:"status"`
	Resting bool   `yaml:"resting"`
}

// Default returns the compiled-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path means the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every train runs on the line and every crew status parses.
func (c *Catalog) Validate() error {
	if len(c.Weathers) == 0 {
		return fmt.Errorf("%w: no weathers", ErrInvalidCatalog)
	}
	for _, w := range c.Weathers {
		if w.DecisionMakingProbability < 0 || w.DecisionMakingProbability > 1 {
			return fmt.Errorf("%w: weather %s probability %v out of range", ErrInvalidCatalog, w.Name, w.DecisionMakingProbability)
		}
	}
	if len(c.Stops) < 2 {
		return fmt.Errorf("%w: the line needs at least two stops", ErrInvalidCatalog)
	}

	routes := route.NewTable(c.Stops)
	seen := make(map[string]bool, len(c.Trains))
	for _, t := range c.Trains {
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate train %s", ErrInvalidCatalog, t.Name)
		}
		seen[t.Name] = true
		miles, err := routes.Distance(route.Route{Start: t.RouteStart, End: t.RouteEnd})
		if err != nil {
			return fmt.Errorf("%w: train %s: %v", ErrInvalidCatalog, t.Name, err)
		}
		if miles <= 0 {
			return fmt.Errorf("%w: train %s has an empty route", ErrInvalidCatalog, t.Name)
		}
	}
	for _, m := range c.Crew {
		if _, err := passenger.ParseStatus(m.Status); err != nil {
			return fmt.Errorf("%w: crew %s: %v", ErrInvalidCatalog, m.ID, err)
		}
	}
	return nil
}

// RouteTable builds the line lookup.
func (c *Catalog) RouteTable() *route.Table {
	return route.NewTable(c.Stops)
}

// WeatherTable builds the weather lookup.
func (c *Catalog) WeatherTable() *weather.Table {
	return weather.NewTable(c.Weathers)
}

// VehicleRegistry builds a fresh registry with no assignments.
func (c *Catalog) VehicleRegistry() *vehicle.Registry {
	return vehicle.NewRegistry(c.Trains)
}

// CrewRoster builds the roster. Statuses were checked by Validate.
func (c *Catalog) CrewRoster() *crew.Roster {
	members := make([]crew.Member, 0, len(c.Crew))
	for _, e := range c.Crew {
		status, _ := passenger.ParseStatus(e.Status)
		members = append(members, crew.Member{
			ID:      e.ID,
			Name:    e.Name,
			Status:  status,
			Resting: e.Resting,
		})
	}
	return crew.NewRoster(members)
}
