package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/citypulse/pulse/server/ranking"
	"github.com/citypulse/pulse/store"
)

type feedItem struct {
	UID         string            `json:"uid"`
	CreatorID   string            `json:"creator_id"`
	Zone        string            `json:"zone"`
	ZoneSource  string            `json:"zone_source"`
	Title       string            `json:"title"`
	Tags        []string          `json:"tags"`
	MediaPath   string            `json:"media_path,omitempty"`
	DurationSec float64           `json:"duration_sec"`
	CreatedTs   int64             `json:"created_ts"`
	ExpiresTs   int64             `json:"expires_ts"`
	Score       ranking.Breakdown `json:"score"`
}

type feedResponse struct {
	Items        []feedItem `json:"items"`
	Personalized bool       `json:"personalized"`
	HasMore      bool       `json:"has_more"`
}

// GetFeed serves the ranked feed for a zone.
// An empty user_id means anonymous: the recency ordering without a profile.
func (s *APIV1Service) GetFeed(c echo.Context) error {
	zone, ok := store.ParseZone(c.QueryParam("zone"))
	if !ok {
		return badRequest(c, "invalid_zone", "unknown zone: "+c.QueryParam("zone"))
	}

	limit, offset, err := parsePage(c)
	if err != nil {
		return badRequest(c, "invalid_pagination", err.Error())
	}
	window, err := parseWindowHours(c)
	if err != nil {
		return badRequest(c, "invalid_window", err.Error())
	}

	result, err := s.Ranker.Feed(c.Request().Context(), &ranking.FeedRequest{
		UserID:   c.QueryParam("user_id"),
		Zone:     zone,
		Limit:    limit,
		Offset:   offset,
		Lookback: window,
		Filter:   c.QueryParam("filter"),
	})
	if err != nil {
		return s.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, convertFeedResult(result))
}

// GetRecentFeed serves the non-personalized recency feed for a zone.
func (s *APIV1Service) GetRecentFeed(c echo.Context) error {
	zone, ok := store.ParseZone(c.Param("zone"))
	if !ok {
		return badRequest(c, "invalid_zone", "unknown zone: "+c.Param("zone"))
	}

	limit, offset, err := parsePage(c)
	if err != nil {
		return badRequest(c, "invalid_pagination", err.Error())
	}
	window, err := parseWindowHours(c)
	if err != nil {
		return badRequest(c, "invalid_window", err.Error())
	}

	result, err := s.Ranker.Recent(c.Request().Context(), zone, limit, offset, window)
	if err != nil {
		return s.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, convertFeedResult(result))
}

func convertFeedResult(result *ranking.FeedResult) feedResponse {
	items := make([]feedItem, 0, len(result.Items))
	for _, ranked := range result.Items {
		items = append(items, convertRankedItem(ranked))
	}
	return feedResponse{
		Items:        items,
		Personalized: result.Personalized,
		HasMore:      result.HasMore,
	}
}

func convertRankedItem(ranked *ranking.RankedItem) feedItem {
	item := ranked.Item
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return feedItem{
		UID:         item.UID,
		CreatorID:   item.CreatorID,
		Zone:        item.Zone.String(),
		ZoneSource:  string(item.ZoneSource),
		Title:       item.Title,
		Tags:        tags,
		MediaPath:   item.MediaPath,
		DurationSec: item.DurationSec,
		CreatedTs:   item.CreatedTs,
		ExpiresTs:   item.ExpiresTs,
		Score:       ranked.Breakdown,
	}
}

func parsePage(c echo.Context) (limit, offset int, err error) {
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, errors.Errorf("limit must be an integer, got %q", raw)
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			return 0, 0, errors.Errorf("offset must be an integer, got %q", raw)
		}
	}
	return limit, offset, nil
}

// parseWindowHours reads window_hours as a duration. Zero means the engine
// default; the engines clamp it to TTL themselves.
func parseWindowHours(c echo.Context) (time.Duration, error) {
	raw := c.QueryParam("window_hours")
	if raw == "" {
		return 0, nil
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || hours <= 0 {
		return 0, errors.Errorf("window_hours must be a positive number, got %q", raw)
	}
	return time.Duration(hours * float64(time.Hour)), nil
}
