package rag

import "github.com/citypulse/pulse/store"

// zoneSuggestions are canned prompts per zone, surfaced so users see what
// kinds of questions retrieval answers well.
var zoneSuggestions = map[store.Zone][]string{
	store.ZoneManhattan: {
		"What's happening in Times Square right now?",
		"Any street performances in Washington Square Park?",
		"Show me food activities in the Village",
		"What's the vibe in Central Park today?",
		"Any art events happening in SoHo?",
	},
	store.ZoneBrooklyn: {
		"What's happening in Williamsburg right now?",
		"Any food events in DUMBO today?",
		"Show me street art activities in Bushwick",
		"What's going on at Brooklyn Bridge Park?",
		"Any music events in Park Slope?",
	},
	store.ZoneQueens: {
		"What's happening in Astoria today?",
		"Any cultural events in Flushing?",
		"Show me food activities in Long Island City",
		"What's the scene in Jackson Heights?",
		"Any events at Gantry Plaza State Park?",
	},
	store.ZoneBronx: {
		"What's happening in the South Bronx?",
		"Any events near Yankee Stadium?",
		"Show me activities around the zoo",
		"What's going on in Fordham?",
		"Any cultural events happening?",
	},
	store.ZoneStatenIsland: {
		"What's happening at the ferry terminal?",
		"Any events in St. George?",
		"Show me activities near the boardwalk",
		"What's going on in Richmond Town?",
		"Any nature activities happening?",
	},
}

// Suggestions returns the canned prompts for a zone, or nil for an unknown
// zone (the handler rejects those before calling).
func Suggestions(zone store.Zone) []string {
	return zoneSuggestions[zone]
}
