package store

import "strings"

// Zone is the geographic partition an item belongs to. The set of zones is
// closed; adding one is a code change, not a data migration.
type Zone string

const (
	ZoneManhattan    Zone = "manhattan"
	ZoneBrooklyn     Zone = "brooklyn"
	ZoneQueens       Zone = "queens"
	ZoneBronx        Zone = "bronx"
	ZoneStatenIsland Zone = "staten_island"
)

// Zones returns every valid zone.
func Zones() []Zone {
	return []Zone{ZoneManhattan, ZoneBrooklyn, ZoneQueens, ZoneBronx, ZoneStatenIsland}
}

// ParseZone normalizes raw input into a Zone. It tolerates casing,
// surrounding whitespace, and spaces instead of underscores
// ("Staten Island" parses). The boolean reports whether the input
// named a known zone.
func ParseZone(raw string) (Zone, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	z := Zone(normalized)
	if z.Valid() {
		return z, true
	}
	return "", false
}

func (z Zone) String() string {
	return string(z)
}

// Valid reports whether z is a member of the closed zone set.
func (z Zone) Valid() bool {
	switch z {
	case ZoneManhattan, ZoneBrooklyn, ZoneQueens, ZoneBronx, ZoneStatenIsland:
		return true
	}
	return false
}

// ZoneSource records how an item's zone was determined. It is carried for
// display only and never participates in ranking.
type ZoneSource string

const (
	ZoneSourceManual   ZoneSource = "manual"
	ZoneSourceInferred ZoneSource = "inferred"
)

// Valid reports whether s is a known provenance tag.
func (s ZoneSource) Valid() bool {
	return s == ZoneSourceManual || s == ZoneSourceInferred
}
