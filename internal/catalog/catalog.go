// Package catalog loads achievement definitions and adventure paths from YAML.
//
// The default catalog is embedded in the binary. Definitions are read-only at
// runtime; achievements are also stored in the database so earned rows can
// reference them.
package catalog

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

//go:embed data/*.yaml
var dataFiles embed.FS

// Catalog holds the achievement and adventure definitions
type Catalog struct {
	achievements []models.Achievement
	byCode       map[string]models.Achievement
	paths        map[string]models.AdventurePath
	pathOrder    []string
}

type achievementsFile struct {
	Achievements []models.Achievement `yaml:"achievements"`
}

type adventuresFile struct {
	Adventures []models.AdventurePath `yaml:"adventures"`
}

// Default parses the embedded catalog
func Default() (*Catalog, error) {
	achievements, err := dataFiles.ReadFile("data/achievements.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read achievements: %w", err)
	}
	adventures, err := dataFiles.ReadFile("data/adventures.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read adventures: %w", err)
	}
	return Parse(achievements, adventures)
}

// Parse builds a catalog from YAML documents and validates every definition
func Parse(achievementsYAML, adventuresYAML []byte) (*Catalog, error) {
	var af achievementsFile
	if err := yaml.Unmarshal(achievementsYAML, &af); err != nil {
		return nil, fmt.Errorf("failed to parse achievements: %w", err)
	}
	var pf adventuresFile
	if err := yaml.Unmarshal(adventuresYAML, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse adventures: %w", err)
	}

	c := &Catalog{
		byCode: make(map[string]models.Achievement, len(af.Achievements)),
		paths:  make(map[string]models.AdventurePath, len(pf.Adventures)),
	}

	for _, a := range af.Achievements {
		if a.Code == "" || a.Name == "" {
			return nil, fmt.Errorf("achievement %q: code and name are required", a.Code)
		}
		if !a.Metric.Valid() {
			return nil, fmt.Errorf("achievement %q: unknown metric %q", a.Code, a.Metric)
		}
		if a.Threshold <= 0 || a.BonusPoints < 0 {
			return nil, fmt.Errorf("achievement %q: threshold must be positive and bonus non-negative", a.Code)
		}
		if _, dup := c.byCode[a.Code]; dup {
			return nil, fmt.Errorf("achievement %q: duplicate code", a.Code)
		}
		c.byCode[a.Code] = a
		c.achievements = append(c.achievements, a)
	}

	for _, p := range pf.Adventures {
		if p.Code == "" || p.Steps <= 0 || p.RewardPoints < 0 {
			return nil, fmt.Errorf("adventure %q: code, positive steps and non-negative reward are required", p.Code)
		}
		if _, dup := c.paths[p.Code]; dup {
			return nil, fmt.Errorf("adventure %q: duplicate code", p.Code)
		}
		c.paths[p.Code] = p
		c.pathOrder = append(c.pathOrder, p.Code)
	}

	// Lower thresholds first so a single pass unlocks in a stable order.
	sort.SliceStable(c.achievements, func(i, j int) bool {
		return c.achievements[i].Threshold < c.achievements[j].Threshold
	})

	return c, nil
}

// Achievements returns every definition ordered by threshold
func (c *Catalog) Achievements() []models.Achievement {
	out := make([]models.Achievement, len(c.achievements))
	copy(out, c.achievements)
	return out
}

// Achievement looks up a definition by code
func (c *Catalog) Achievement(code string) (models.Achievement, bool) {
	a, ok := c.byCode[code]
	return a, ok
}

// Path looks up an adventure path by code
func (c *Catalog) Path(code string) (models.AdventurePath, bool) {
	p, ok := c.paths[code]
	return p, ok
}

// Paths returns the adventure paths in file order
func (c *Catalog) Paths() []models.AdventurePath {
	out := make([]models.AdventurePath, 0, len(c.pathOrder))
	for _, code := range c.pathOrder {
		out = append(out, c.paths[code])
	}
	return out
}
