package v1

import (
	"net/http"

	"swiftjobs-backend/internal/delivery/http/response"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

type SwipeHandler struct {
	swipeUC domain.SwipeUsecase
}

func NewSwipeHandler(rg *gin.RouterGroup, swipeUC domain.SwipeUsecase) {
	handler := &SwipeHandler{swipeUC: swipeUC}

	rg.POST("/swipe", handler.Swipe)
	rg.GET("/swipes/state", handler.PairState)
	rg.GET("/matches", handler.ListMatches)
}

// SwipeRequest is the body the swipe deck posts. Employers swiping on an
// applicant must say which of their jobs the swipe is for.
type SwipeRequest struct {
	UserID   string `json:"userId" binding:"required,max=128"`
	TargetID string `json:"targetId" binding:"required,max=128"`
	Action   string `json:"action" binding:"required,swipe_action"`
	UserRole string `json:"userRole" binding:"required,swipe_role"`
	JobID    string `json:"jobId" binding:"max=128"`
}

// Swipe godoc
// @Summary      Record a swipe
// @Description  Stores a like or dislike. When both the applicant and the job's employer like each other a match is created exactly once.
// @Tags         swipes
// @Accept       json
// @Produce      json
// @Param        swipe  body      SwipeRequest  true  "Swipe JSON"
// @Success      200    {object}  response.Response{data=domain.SwipeResult}
// @Failure      400    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /swipe [post]
// @Security     BearerAuth
func (h *SwipeHandler) Swipe(c *gin.Context) {
	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.Validation(validation.Summary(err)))
		return
	}

	result, err := h.swipeUC.RecordSwipe(c.Request.Context(), domain.SwipeCommand{
		ActorID:   req.UserID,
		TargetID:  req.TargetID,
		ActorRole: domain.Role(req.UserRole),
		Action:    domain.SwipeAction(req.Action),
		JobID:     req.JobID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	msg := "Swipe recorded"
	if result.IsMatch {
		msg = "It's a match"
	}
	response.Success(c, http.StatusOK, msg, result)
}

// PairState godoc
// @Summary      Swipe state of an applicant/job pair
// @Description  NONE, APPLICANT_LIKED, EMPLOYER_LIKED, MATCHED or DISLIKED.
// @Tags         swipes
// @Produce      json
// @Param        applicant_id  query     string  true  "Applicant profile ID"
// @Param        job_id        query     string  true  "Job ID"
// @Success      200           {object}  response.Response
// @Failure      400           {object}  response.Response
// @Failure      404           {object}  response.Response
// @Router       /swipes/state [get]
func (h *SwipeHandler) PairState(c *gin.Context) {
	applicantID, jobID := c.Query("applicant_id"), c.Query("job_id")
	if applicantID == "" || jobID == "" {
		c.Error(apperror.Validation("applicant_id and job_id are required"))
		return
	}

	state, err := h.swipeUC.PairState(c.Request.Context(), applicantID, jobID)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Pair state", gin.H{
		"applicant_id": applicantID,
		"job_id":       jobID,
		"state":        state,
	})
}

// ListMatches godoc
// @Summary      List matches
// @Description  Matches of one applicant or of one job. At least one filter is required.
// @Tags         swipes
// @Produce      json
// @Param        applicant_id  query     string  false  "Applicant profile ID"
// @Param        job_id        query     string  false  "Job ID"
// @Success      200           {object}  response.Response{data=[]domain.Match}
// @Failure      400           {object}  response.Response
// @Router       /matches [get]
func (h *SwipeHandler) ListMatches(c *gin.Context) {
	matches, err := h.swipeUC.ListMatches(c.Request.Context(), domain.MatchFilter{
		ApplicantID: c.Query("applicant_id"),
		JobID:       c.Query("job_id"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	if matches == nil {
		matches = []domain.Match{}
	}

	response.Success(c, http.StatusOK, "Matches", matches)
}
