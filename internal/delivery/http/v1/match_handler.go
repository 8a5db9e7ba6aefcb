package v1

import (
	"net/http"

	"swiftjobs-backend/internal/delivery/http/response"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchUC domain.MatchUsecase
}

func NewMatchHandler(rg *gin.RouterGroup, matchUC domain.MatchUsecase) {
	handler := &MatchHandler{matchUC: matchUC}
	rg.POST("/match/score", handler.Score)
}

type MatchScoreRequest struct {
	ApplicantID string `json:"applicantId" binding:"required,max=128"`
	JobID       string `json:"jobId" binding:"required,max=128"`
}

// ScoreMatch godoc
// @Summary      Score an applicant against a job
// @Description  Blends embedding similarity with required-skill overlap into a 0-100 score and explains it. Missing embeddings are computed on the fly.
// @Tags         match
// @Accept       json
// @Produce      json
// @Param        request  body      MatchScoreRequest  true  "Applicant and job"
// @Success      200      {object}  response.Response{data=domain.MatchScore}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /match/score [post]
func (h *MatchHandler) Score(c *gin.Context) {
	var req MatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.Validation(validation.Summary(err)))
		return
	}

	score, err := h.matchUC.ScoreMatch(c.Request.Context(), req.ApplicantID, req.JobID)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Match score", score)
}
