package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type createLikeRequest struct {
	UserID  string `json:"user_id"`
	ItemUID string `json:"item_uid"`
}

type createLikeResponse struct {
	UserID     string `json:"user_id"`
	ItemUID    string `json:"item_uid"`
	LikesCount int64  `json:"likes_count"`
	UpdatedTs  int64  `json:"updated_ts"`
}

// CreateLike records a positive engagement and folds the item's embedding
// into the user's taste profile.
func (s *APIV1Service) CreateLike(c echo.Context) error {
	request := &createLikeRequest{}
	if err := c.Bind(request); err != nil {
		return badRequest(c, "invalid_body", "malformed request body")
	}
	if request.UserID == "" {
		return badRequest(c, "invalid_body", "user_id is required")
	}
	if request.ItemUID == "" {
		return badRequest(c, "invalid_body", "item_uid is required")
	}

	profile, err := s.Learner.RecordPositiveEngagement(c.Request().Context(), request.UserID, request.ItemUID)
	if err != nil {
		return s.errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, createLikeResponse{
		UserID:     profile.UserID,
		ItemUID:    request.ItemUID,
		LikesCount: profile.N,
		UpdatedTs:  profile.UpdatedTs,
	})
}

// GetTasteSummary returns the sanitized taste profile view for a user.
// Users with no engagement get an empty summary, not a 404.
func (s *APIV1Service) GetTasteSummary(c echo.Context) error {
	userID := c.Param("userID")
	if userID == "" {
		return badRequest(c, "invalid_user", "user id is required")
	}

	summary, err := s.Learner.Profile(c.Request().Context(), userID)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
