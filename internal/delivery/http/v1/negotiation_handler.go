package v1

import (
	"errors"
	"net/http"

	"swiftjobs-backend/internal/delivery/http/response"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

type NegotiationHandler struct {
	negotiationUC domain.NegotiationUsecase
}

// NewNegotiationHandler registers the negotiation routes. startLimit guards
// session starts only; reading and cancelling stay unlimited.
func NewNegotiationHandler(rg *gin.RouterGroup, negotiationUC domain.NegotiationUsecase, startLimit gin.HandlerFunc) {
	handler := &NegotiationHandler{negotiationUC: negotiationUC}

	start := []gin.HandlerFunc{handler.Negotiate}
	if startLimit != nil {
		start = append([]gin.HandlerFunc{startLimit}, start...)
	}
	rg.POST("/negotiate", start...)

	sessions := rg.Group("/negotiations")
	{
		sessions.GET("/:id", handler.GetResult)
		sessions.POST("/:id/cancel", handler.Cancel)
	}
}

type NegotiateRequest struct {
	SessionID             string   `json:"sessionId" binding:"omitempty,max=128"`
	CandidateID           string   `json:"candidateId" binding:"required,max=128"`
	JobID                 string   `json:"jobId" binding:"required,max=128"`
	EmployerBudget        *float64 `json:"employerBudget" binding:"omitempty,gt=0"`
	CandidateTargetSalary *float64 `json:"candidateTargetSalary" binding:"omitempty,gt=0"`
}

// Negotiate godoc
// @Summary      Run a salary negotiation
// @Description  Runs an employer/candidate negotiation to completion and returns the transcript, the final score and the hire verdict. Calling again with the same sessionId returns the stored result.
// @Tags         negotiations
// @Accept       json
// @Produce      json
// @Param        request  body      NegotiateRequest  true  "Negotiation input"
// @Success      200      {object}  response.Response{data=domain.NegotiationResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response{data=domain.NegotiationResult}
// @Failure      429      {object}  response.Response
// @Failure      502      {object}  response.Response{data=domain.NegotiationResult}
// @Router       /negotiate [post]
// @Security     BearerAuth
func (h *NegotiationHandler) Negotiate(c *gin.Context) {
	var req NegotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.Validation(validation.Summary(err)))
		return
	}

	result, err := h.negotiationUC.Negotiate(c.Request.Context(), domain.NegotiationRequest{
		SessionID:             req.SessionID,
		CandidateID:           req.CandidateID,
		JobID:                 req.JobID,
		EmployerBudget:        req.EmployerBudget,
		CandidateTargetSalary: req.CandidateTargetSalary,
	})
	if err != nil {
		failWithResult(c, result, err)
		return
	}

	response.Success(c, http.StatusOK, "Negotiation finished", result)
}

// GetNegotiation godoc
// @Summary      Get a negotiation session
// @Tags         negotiations
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response{data=domain.NegotiationResult}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response{data=domain.NegotiationResult}
// @Failure      502  {object}  response.Response{data=domain.NegotiationResult}
// @Router       /negotiations/{id} [get]
func (h *NegotiationHandler) GetResult(c *gin.Context) {
	result, err := h.negotiationUC.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithResult(c, result, err)
		return
	}
	response.Success(c, http.StatusOK, "Negotiation", result)
}

// CancelNegotiation godoc
// @Summary      Cancel a running negotiation
// @Description  The session is marked FAILED with reason "cancelled" and its run stops before the next turn.
// @Tags         negotiations
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /negotiations/{id}/cancel [post]
// @Security     BearerAuth
func (h *NegotiationHandler) Cancel(c *gin.Context) {
	if err := h.negotiationUC.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Negotiation cancelled", nil)
}

// failWithResult keeps the transcript of a failed session in the error
// response. Errors without a result go through the error middleware.
func failWithResult(c *gin.Context, result *domain.NegotiationResult, err error) {
	var appErr *apperror.AppError
	if result == nil || !errors.As(err, &appErr) {
		c.Error(err)
		return
	}
	response.ErrorWithData(c, appErr.Code, appErr.Message, appErr.Kind, result)
}
