package listings

import (
	"fmt"
	"math"

	"estate-backend/internal/catalog"
)

// MapCluster is one marker on the interactive map: every property sharing a
// coordinate (to 6 decimal places, roughly 0.1m) collapses into it.
type MapCluster struct {
	Lat     float64            `json:"lat"`
	Lng     float64            `json:"lng"`
	Count   int                `json:"count"`
	Members []EnhancedProperty `json:"members"`
}

// Clusters groups properties into map markers. Condos without their own
// coordinates inherit the parent project's before rounding, so sibling units
// of one building never split into separate markers. Properties with no
// resolvable coordinates are left off the map.
func Clusters(props []EnhancedProperty) []MapCluster {
	order := make([]string, 0, len(props))
	byKey := make(map[string]*MapCluster)

	for _, p := range props {
		coords := resolveCoordinates(p.Property)
		if coords == nil {
			continue
		}

		lat := round6(coords.Lat)
		lng := round6(coords.Lng)
		key := fmt.Sprintf("%.6f,%.6f", lat, lng)

		cluster, ok := byKey[key]
		if !ok {
			cluster = &MapCluster{Lat: lat, Lng: lng}
			byKey[key] = cluster
			order = append(order, key)
		}
		cluster.Count++
		cluster.Members = append(cluster.Members, p)
	}

	out := make([]MapCluster, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

func resolveCoordinates(p catalog.Property) *catalog.Coordinates {
	if p.Coordinates != nil {
		return p.Coordinates
	}
	if p.PropertyType == catalog.TypeCondo && p.Project != nil {
		return p.Project.Coordinates
	}
	return nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
