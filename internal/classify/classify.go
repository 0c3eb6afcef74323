// Package classify holds the static per-dataset column classification used
// by the compact shape mode.
package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Role is the classification of a single column.
type Role string

const (
	// RoleKey marks a column retained by the compact shape.
	RoleKey Role = "KEY"
	// RoleSupplementary marks a column pruned by the compact shape.
	RoleSupplementary Role = "SUPPLEMENTARY"
)

// Registry maps dataset id → column name → Role. Built once at startup,
// read-only at request time.
type Registry struct {
	datasets map[string]map[string]Role
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]map[string]Role)}
}

// Default returns the built-in classification for the known basketball
// datasets. A YAML file loaded on top of it overrides per dataset.
func Default() *Registry {
	r := NewRegistry()
	r.Set("schedule", map[string]Role{
		"game_id":    RoleKey,
		"league":     RoleKey,
		"season":     RoleKey,
		"game_date":  RoleKey,
		"home_team":  RoleKey,
		"away_team":  RoleKey,
		"home_score": RoleKey,
		"away_score": RoleKey,
		"venue":      RoleSupplementary,
		"attendance": RoleSupplementary,
		"status":     RoleSupplementary,
	})
	r.Set("play_by_play", map[string]Role{
		"game_id":      RoleKey,
		"period":       RoleKey,
		"clock":        RoleKey,
		"event_type":   RoleKey,
		"team":         RoleKey,
		"player_id":    RoleKey,
		"points":       RoleKey,
		"description":  RoleSupplementary,
		"home_score":   RoleSupplementary,
		"away_score":   RoleSupplementary,
		"event_number": RoleSupplementary,
	})
	r.Set("shot_chart", map[string]Role{
		"game_id":   RoleKey,
		"player_id": RoleKey,
		"team":      RoleKey,
		"made":      RoleKey,
		"shot_x":    RoleKey,
		"shot_y":    RoleKey,
		"value":     RoleKey,
		"period":    RoleSupplementary,
		"clock":     RoleSupplementary,
		"distance":  RoleSupplementary,
		"shot_type": RoleSupplementary,
	})
	r.Set("season_totals", map[string]Role{
		"player_id": RoleKey,
		"league":    RoleKey,
		"season":    RoleKey,
		"team":      RoleKey,
		"games":     RoleKey,
		"minutes":   RoleKey,
		"points":    RoleKey,
		"rebounds":  RoleKey,
		"assists":   RoleKey,
		"steals":    RoleSupplementary,
		"blocks":    RoleSupplementary,
		"turnovers": RoleSupplementary,
		"fouls":     RoleSupplementary,
	})
	return r
}

// Set registers the classification table for a dataset, replacing any
// previous entry.
func (r *Registry) Set(dataset string, roles map[string]Role) {
	r.datasets[dataset] = roles
}

// Classified reports whether the dataset has any classification entries.
func (r *Registry) Classified(dataset string) bool {
	return len(r.datasets[dataset]) > 0
}

// Keep reports whether the compact shape retains the column. Columns with
// no classification entry are kept — unknown data is never silently
// dropped.
func (r *Registry) Keep(dataset, column string) bool {
	roles, ok := r.datasets[dataset]
	if !ok {
		return true
	}
	role, ok := roles[column]
	if !ok {
		return true
	}
	return role == RoleKey
}

// fileSchema is the on-disk YAML layout:
//
//	datasets:
//	  schedule:
//	    game_id: KEY
//	    venue: SUPPLEMENTARY
type fileSchema struct {
	Datasets map[string]map[string]Role `yaml:"datasets"`
}

// LoadFile merges classifications from a YAML file over the registry.
// A missing file is not an error — the built-in table stands.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("classify.LoadFile: %w", err)
	}
	var f fileSchema
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("classify.LoadFile: parse %s: %w", path, err)
	}
	for dataset, roles := range f.Datasets {
		for col, role := range roles {
			if role != RoleKey && role != RoleSupplementary {
				return fmt.Errorf("classify.LoadFile: dataset %s column %s: unknown role %q", dataset, col, role)
			}
		}
		r.Set(dataset, roles)
	}
	return nil
}
