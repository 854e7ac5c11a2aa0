package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/pipeline-crm/internal/dtos"
	"github.com/justsurfingit/pipeline-crm/internal/middleware"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/justsurfingit/pipeline-crm/internal/services"
	"go.uber.org/zap"
)

type OpportunityHandler struct {
	base
	Opportunities *repository.OpportunityRepository
}

func NewOpportunityHandler(opps *repository.OpportunityRepository, log *zap.Logger) *OpportunityHandler {
	return &OpportunityHandler{base: base{Log: log}, Opportunities: opps}
}

func (h *OpportunityHandler) List(c *gin.Context) {
	var q dtos.OpportunityListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := repository.OpportunityFilter{
		StageID:    q.StageID,
		CategoryID: q.CategoryID,
		ContactID:  q.ContactID,
		CompanyID:  q.CompanyID,
	}
	page, err := h.Opportunities.List(c.Request.Context(), middleware.UserID(c), filter, q.Params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *OpportunityHandler) Get(c *gin.Context) {
	opp, err := h.Opportunities.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

func (h *OpportunityHandler) Create(c *gin.Context) {
	var req dtos.OpportunityCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID := middleware.UserID(c)
	opp := req.Model(userID)
	if err := h.Opportunities.Create(c.Request.Context(), opp); err != nil {
		h.respondError(c, err)
		return
	}
	created, err := h.Opportunities.Get(c.Request.Context(), userID, opp.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *OpportunityHandler) Update(c *gin.Context) {
	var req dtos.OpportunityUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	opp, err := h.Opportunities.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

// Delete also removes the conversations linked to the opportunity.
func (h *OpportunityHandler) Delete(c *gin.Context) {
	if err := h.Opportunities.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type PipelineHandler struct {
	base
	Pipeline *services.PipelineService
}

func NewPipelineHandler(pipeline *services.PipelineService, log *zap.Logger) *PipelineHandler {
	return &PipelineHandler{base: base{Log: log}, Pipeline: pipeline}
}

func (h *PipelineHandler) Board(c *gin.Context) {
	board, err := h.Pipeline.Board(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": board})
}

func (h *PipelineHandler) Move(c *gin.Context) {
	var req dtos.MoveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	opp, err := h.Pipeline.Move(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.StageID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opp)
}

func (h *PipelineHandler) ListStages(c *gin.Context) {
	var q dtos.EnsureDefaultsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	stages, err := h.Pipeline.ListStages(c.Request.Context(), middleware.UserID(c), q.EnsureDefaults)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": stages})
}

func (h *PipelineHandler) CreateStage(c *gin.Context) {
	var req dtos.StageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	stage, err := h.Pipeline.CreateStage(c.Request.Context(), middleware.UserID(c), req.Name, req.Color)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stage)
}

func (h *PipelineHandler) UpdateStage(c *gin.Context) {
	var req dtos.StageUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	stage, err := h.Pipeline.UpdateStage(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stage)
}

func (h *PipelineHandler) DeleteStage(c *gin.Context) {
	if err := h.Pipeline.DeleteStage(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type CategoryHandler struct {
	base
	Categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{base: base{Log: log}, Categories: categories}
}

func (h *CategoryHandler) List(c *gin.Context) {
	var q dtos.EnsureDefaultsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	categories, err := h.Categories.List(c.Request.Context(), middleware.UserID(c), q.EnsureDefaults)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": categories})
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req dtos.StageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.Categories.Create(c.Request.Context(), middleware.UserID(c), req.Name, req.Color)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var req dtos.CategoryUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.Categories.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.Categories.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
