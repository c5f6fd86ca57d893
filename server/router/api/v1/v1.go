package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/citypulse/pulse/internal/profile"
	"github.com/citypulse/pulse/plugin/filter"
	"github.com/citypulse/pulse/server/middleware"
	"github.com/citypulse/pulse/server/rag"
	"github.com/citypulse/pulse/server/ranking"
	"github.com/citypulse/pulse/server/taste"
	"github.com/citypulse/pulse/store"
)

// askRateEvery and askRateBurst bound how often one client may hit the ask
// path; every ask can cost an embedding plus an LLM call.
const (
	askRateEvery = 2 * time.Second
	askRateBurst = 3
)

// APIV1Service wires the engines behind the JSON API.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Ranker  *ranking.Ranker
	Learner *taste.Learner
	Ask     *rag.Engine

	askLimiter *middleware.RateLimiter
}

// NewAPIV1Service creates the API service over already-constructed engines.
func NewAPIV1Service(profile *profile.Profile, store *store.Store, ranker *ranking.Ranker, learner *taste.Learner, ask *rag.Engine) *APIV1Service {
	return &APIV1Service{
		Profile:    profile,
		Store:      store,
		Ranker:     ranker,
		Learner:    learner,
		Ask:        ask,
		askLimiter: middleware.NewRateLimiter(askRateEvery, askRateBurst),
	}
}

// RegisterRoutes registers all HTTP routes on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiV1 := echoServer.Group("/api/v1")

	apiV1.GET("/feed", s.GetFeed)
	apiV1.GET("/feed/:zone/recent", s.GetRecentFeed)
	apiV1.POST("/likes", s.CreateLike)
	apiV1.GET("/users/:userID/taste", s.GetTasteSummary)
	apiV1.POST("/ask", s.CreateAsk)
	apiV1.GET("/ask/suggestions", s.GetAskSuggestions)
	apiV1.GET("/zones", s.ListZones)

	echoServer.GET("/rss/zones/:zone", s.GetZoneRSS)
	echoServer.GET("/healthz", s.GetHealthz)
}

// GetHealthz reports liveness plus store reachability.
func (s *APIV1Service) GetHealthz(c echo.Context) error {
	if err := s.Store.GetDriver().GetDB().PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorJSON maps domain errors onto HTTP statuses. Validation failures and
// unknown zones are the client's fault; everything unrecognized is a 500 with
// the detail kept out of the body.
func (*APIV1Service) errorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrInvalidZone):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_zone", Message: err.Error()})
	case errors.Is(err, rag.ErrInvalidQuery):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_query", Message: err.Error()})
	case errors.Is(err, filter.ErrInvalidExpression):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_filter", Message: err.Error()})
	case errors.Is(err, store.ErrItemNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "item_not_found", Message: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal server error"})
	}
}

func badRequest(c echo.Context, code, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: code, Message: message})
}
