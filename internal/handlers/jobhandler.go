package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/dtos"
	"github.com/justsurfingit/pipeline-crm/internal/middleware"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/justsurfingit/pipeline-crm/internal/services"
	"go.uber.org/zap"
)

type JobHandler struct {
	base
	JobPostings *repository.JobPostingRepository
	JobService  *services.JobPostingService
}

func NewJobHandler(jobs *repository.JobPostingRepository, svc *services.JobPostingService, log *zap.Logger) *JobHandler {
	return &JobHandler{base: base{Log: log}, JobPostings: jobs, JobService: svc}
}

// ParseJob is POST /job-postings/extract.
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	extracted, err := h.JobService.Extract(c.Request.Context(), &req)
	if errors.Is(err, services.ErrInvalidModelJSON) {
		err = apperrors.New(http.StatusBadGateway, "the model did not return valid JSON").Wrap(err)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	// RawMessage keeps the model's object from being re-escaped as a string.
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    extracted,
	})
}

func (h *JobHandler) List(c *gin.Context) {
	var q dtos.JobPostingListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := repository.JobPostingFilter{CompanyID: q.CompanyID, Status: q.Status}
	page, err := h.JobPostings.List(c.Request.Context(), middleware.UserID(c), filter, q.Params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.JobPostings.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobPostingCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	job, err := h.JobService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) Update(c *gin.Context) {
	var req dtos.JobPostingUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	job, err := h.JobPostings.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.JobPostings.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
