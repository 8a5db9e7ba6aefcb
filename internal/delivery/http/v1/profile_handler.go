package v1

import (
	"net/http"

	"swiftjobs-backend/internal/delivery/http/response"
	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/apperror"
	"swiftjobs-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUC domain.ProfileUsecase
}

func NewProfileHandler(rg *gin.RouterGroup, profileUC domain.ProfileUsecase) {
	handler := &ProfileHandler{profileUC: profileUC}

	profiles := rg.Group("/profiles")
	{
		profiles.PUT("/:id", handler.Save)
		profiles.GET("/:id", handler.Get)
	}
}

type SaveProfileRequest struct {
	Role              string   `json:"role" binding:"required,swipe_role"`
	FullName          string   `json:"full_name" binding:"max=200,no_emoji"`
	ResumeText        string   `json:"resume_text" binding:"max=20000"`
	Skills            []string `json:"skills" binding:"max=100,dive,skill,max=64"`
	SalaryExpectation *float64 `json:"salary_expectation" binding:"omitempty,gte=0"`
}

// SaveProfile godoc
// @Summary      Create or update a profile
// @Description  Upserts an applicant or employer profile. Changing the resume text recomputes the embedding.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Profile ID"
// @Param        profile  body      SaveProfileRequest  true  "Profile JSON"
// @Success      200      {object}  response.Response{data=domain.Profile}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /profiles/{id} [put]
// @Security     BearerAuth
func (h *ProfileHandler) Save(c *gin.Context) {
	var req SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.Validation(validation.Summary(err)))
		return
	}

	profile, err := h.profileUC.SaveProfile(c.Request.Context(), &domain.Profile{
		ID:                c.Param("id"),
		Role:              domain.Role(req.Role),
		FullName:          req.FullName,
		ResumeText:        req.ResumeText,
		Skills:            req.Skills,
		SalaryExpectation: req.SalaryExpectation,
	})
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Profile saved", profile)
}

// GetProfile godoc
// @Summary      Get a profile
// @Tags         profiles
// @Produce      json
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  response.Response{data=domain.Profile}
// @Failure      404  {object}  response.Response
// @Router       /profiles/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profileUC.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile", profile)
}
