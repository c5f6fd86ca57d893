package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/citypulse/pulse/store"
)

const rssItemLimit = 50

// GetZoneRSS serves the recent items of a zone as an RSS 2.0 feed.
func (s *APIV1Service) GetZoneRSS(c echo.Context) error {
	zone, ok := store.ParseZone(c.Param("zone"))
	if !ok {
		return badRequest(c, "invalid_zone", "unknown zone: "+c.Param("zone"))
	}

	result, err := s.Ranker.Recent(c.Request().Context(), zone, rssItemLimit, 0, 0)
	if err != nil {
		return s.errorJSON(c, err)
	}

	baseURL := strings.TrimRight(s.Profile.InstanceURL, "/")
	feed := &feeds.Feed{
		Title:       fmt.Sprintf("CityPulse — %s", zoneDisplayNames[zone]),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/rss/zones/%s", baseURL, zone)},
		Description: fmt.Sprintf("What's happening in %s right now", zoneDisplayNames[zone]),
		Created:     time.Now(),
	}

	feed.Items = make([]*feeds.Item, 0, len(result.Items))
	for _, ranked := range result.Items {
		item := ranked.Item
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          item.UID,
			Title:       item.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/v1/feed/%s/recent", baseURL, zone)},
			Description: itemDescription(item),
			Created:     time.Unix(item.CreatedTs, 0),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return s.errorJSON(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml")
	return c.String(http.StatusOK, rss)
}

func itemDescription(item *store.Item) string {
	text := item.ContextText()
	if len(text) > 280 {
		text = text[:280] + "…"
	}
	if len(item.Tags) > 0 {
		return fmt.Sprintf("%s [%s]", text, strings.Join(item.Tags, ", "))
	}
	return text
}
