package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citypulse/pulse/store"
)

var zoneDisplayNames = map[store.Zone]string{
	store.ZoneManhattan:    "Manhattan",
	store.ZoneBrooklyn:     "Brooklyn",
	store.ZoneQueens:       "Queens",
	store.ZoneBronx:        "The Bronx",
	store.ZoneStatenIsland: "Staten Island",
}

type zoneInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListZones returns the closed set of zones clients may scope requests to.
func (s *APIV1Service) ListZones(c echo.Context) error {
	zones := make([]zoneInfo, 0, len(store.Zones()))
	for _, zone := range store.Zones() {
		zones = append(zones, zoneInfo{ID: zone.String(), Name: zoneDisplayNames[zone]})
	}
	return c.JSON(http.StatusOK, map[string]any{"zones": zones})
}
