package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/citypulse/pulse/server/rag"
	"github.com/citypulse/pulse/store"
)

type askRequest struct {
	Query       string  `json:"query"`
	Zone        string  `json:"zone,omitempty"`
	WindowHours float64 `json:"window_hours,omitempty"`
}

// CreateAsk answers a natural-language question over recent zone activity.
// Rate limited per client: every ask may cost an embedding plus an LLM call.
func (s *APIV1Service) CreateAsk(c echo.Context) error {
	rateKey := c.QueryParam("user_id")
	if rateKey == "" {
		rateKey = c.RealIP()
	}
	if !s.askLimiter.Allow(rateKey) {
		return c.JSON(http.StatusTooManyRequests, errorResponse{
			Error:   "rate_limited",
			Message: "too many questions, slow down",
		})
	}

	request := &askRequest{}
	if err := c.Bind(request); err != nil {
		return badRequest(c, "invalid_body", "malformed request body")
	}
	if request.WindowHours < 0 {
		return badRequest(c, "invalid_window", "window_hours must be positive")
	}

	result, err := s.Ask.Ask(c.Request().Context(), &rag.AskRequest{
		Query:  request.Query,
		Zone:   request.Zone,
		Window: time.Duration(request.WindowHours * float64(time.Hour)),
	})
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type askSuggestionsResponse struct {
	Zone        string   `json:"zone"`
	Suggestions []string `json:"suggestions"`
}

// GetAskSuggestions returns canned prompts for a zone.
func (s *APIV1Service) GetAskSuggestions(c echo.Context) error {
	zone, ok := store.ParseZone(c.QueryParam("zone"))
	if !ok {
		return badRequest(c, "invalid_zone", "unknown zone: "+c.QueryParam("zone"))
	}
	return c.JSON(http.StatusOK, askSuggestionsResponse{
		Zone:        zone.String(),
		Suggestions: rag.Suggestions(zone),
	})
}
