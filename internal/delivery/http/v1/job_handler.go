package v1

import (
	"net/http"
	"strconv"

	"swiftjobs-backend/internal/delivery/http/response"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobUC domain.JobUsecase
}

func NewJobHandler(rg *gin.RouterGroup, jobUC domain.JobUsecase) {
	handler := &JobHandler{jobUC: jobUC}

	jobs := rg.Group("/jobs")
	{
		// must be registered before /:id
		jobs.GET("/recommended", handler.Recommended)
		jobs.POST("", handler.Create)
		jobs.GET("/:id", handler.GetDetails)
		jobs.PUT("/:id", handler.Update)
		jobs.GET("/:id/candidates", handler.Candidates)
	}
}

type JobRequest struct {
	// OwnerID defaults to the authenticated caller.
	OwnerID      string   `json:"owner_id"`
	Title        string   `json:"title" binding:"required,max=200,no_emoji"`
	Description  string   `json:"description" binding:"max=20000"`
	Requirements []string `json:"requirements" binding:"max=100,dive,skill,max=64"`
	BudgetMin    *float64 `json:"budget_min" binding:"omitempty,gte=0"`
	BudgetMax    *float64 `json:"budget_max" binding:"omitempty,gte=0"`
}

func (r JobRequest) toJob(id string) *domain.Job {
	return &domain.Job{
		ID:           id,
		Title:        r.Title,
		Description:  r.Description,
		Requirements: r.Requirements,
		BudgetMin:    r.BudgetMin,
		BudgetMax:    r.BudgetMax,
	}
}

// CreateJob godoc
// @Summary      Create a new job
// @Description  Create a job posting owned by an employer profile. The description is embedded for recommendations.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job  body      JobRequest  true  "Job JSON"
// @Success      201  {object}  response.Response{data=domain.Job}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs [post]
// @Security     BearerAuth
func (h *JobHandler) Create(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.Validation(validation.Summary(err)))
		return
	}

	job, err := h.jobUC.CreateJob(c.Request.Context(), actorID(c, req.OwnerID), req.toJob(""))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Job created", job)
}

// UpdateJob godoc
// @Summary      Update a job
// @Description  Replace a job posting. Only the owning employer may update it.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id   path      string      true  "Job ID"
// @Param        job  body      JobRequest  true  "Job JSON"
// @Success      200  {object}  response.Response{data=domain.Job}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [put]
// @Security     BearerAuth
func (h *JobHandler) Update(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.Validation(validation.Summary(err)))
		return
	}

	job, err := h.jobUC.UpdateJob(c.Request.Context(), actorID(c, req.OwnerID), req.toJob(c.Param("id")))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Job updated", job)
}

// GetJobDetails godoc
// @Summary      Get job details
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response{data=domain.Job}
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetDetails(c *gin.Context) {
	job, err := h.jobUC.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job details", job)
}

// RecommendedJobs godoc
// @Summary      Recommended jobs for an applicant
// @Description  Jobs nearest to the applicant's profile embedding, re-scored with skill overlap. Jobs the applicant already swiped on are skipped.
// @Tags         jobs
// @Produce      json
// @Param        applicant_id  query     string  false  "Applicant profile ID (defaults to the caller)"
// @Param        limit         query     int     false  "Maximum results (default 20, max 100)"
// @Success      200           {object}  response.Response{data=[]domain.JobRecommendation}
// @Failure      400           {object}  response.Response
// @Failure      404           {object}  response.Response
// @Router       /jobs/recommended [get]
// @Security     BearerAuth
func (h *JobHandler) Recommended(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.Error(apperror.Validation("limit must be a non-negative integer"))
		return
	}

	applicantID := actorID(c, c.Query("applicant_id"))
	if applicantID == "" {
		c.Error(apperror.Validation("applicant_id is required"))
		return
	}

	recs, err := h.jobUC.RecommendJobs(c.Request.Context(), applicantID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Recommended jobs", recs)
}

// JobCandidates godoc
// @Summary      Ranked applicants for a job
// @Description  Applicants nearest to the job embedding, re-scored with skill overlap. Applicants the owner already swiped on for this job are skipped. Only the owning employer may call it.
// @Tags         jobs
// @Produce      json
// @Param        id         path      string  true   "Job ID"
// @Param        owner_id   query     string  false  "Employer profile ID (defaults to the caller)"
// @Param        min_score  query     int     false  "Minimum match score 0-100"
// @Param        limit      query     int     false  "Maximum results (default 20, max 100)"
// @Success      200        {object}  response.Response{data=[]domain.CandidateRecommendation}
// @Failure      400        {object}  response.Response
// @Failure      403        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /jobs/{id}/candidates [get]
// @Security     BearerAuth
func (h *JobHandler) Candidates(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.Error(apperror.Validation("limit must be a non-negative integer"))
		return
	}
	minScore, err := strconv.Atoi(c.DefaultQuery("min_score", "0"))
	if err != nil {
		c.Error(apperror.Validation("min_score must be an integer"))
		return
	}

	ownerID := actorID(c, c.Query("owner_id"))
	if ownerID == "" {
		c.Error(apperror.Validation("owner_id is required"))
		return
	}

	recs, err := h.jobUC.RecommendCandidates(c.Request.Context(), ownerID, c.Param("id"), minScore, limit)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Recommended candidates", recs)
}
