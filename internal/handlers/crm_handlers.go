package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/pipeline-crm/internal/dtos"
	"github.com/justsurfingit/pipeline-crm/internal/middleware"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/justsurfingit/pipeline-crm/internal/services"
	"go.uber.org/zap"
)

type CompanyHandler struct {
	base
	Companies *repository.CompanyRepository
}

func NewCompanyHandler(companies *repository.CompanyRepository, log *zap.Logger) *CompanyHandler {
	return &CompanyHandler{base: base{Log: log}, Companies: companies}
}

func (h *CompanyHandler) List(c *gin.Context) {
	var q dtos.CompanyListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.Companies.List(c.Request.Context(), middleware.UserID(c),
		repository.CompanyFilter{Industry: q.Industry}, q.Params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.Companies.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Create(c *gin.Context) {
	var req dtos.CompanyCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	company := req.Model(middleware.UserID(c))
	if err := h.Companies.Create(c.Request.Context(), company); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *CompanyHandler) Update(c *gin.Context) {
	var req dtos.CompanyUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	company, err := h.Companies.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Delete(c *gin.Context) {
	if err := h.Companies.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ContactHandler struct {
	base
	Contacts *repository.ContactRepository
	Service  *services.ContactService
}

func NewContactHandler(contacts *repository.ContactRepository, svc *services.ContactService, log *zap.Logger) *ContactHandler {
	return &ContactHandler{base: base{Log: log}, Contacts: contacts, Service: svc}
}

func (h *ContactHandler) List(c *gin.Context) {
	var q dtos.ContactListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := repository.ContactFilter{CompanyID: q.CompanyID, Source: q.Source}
	page, err := h.Contacts.List(c.Request.Context(), middleware.UserID(c), filter, q.Params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContactHandler) Get(c *gin.Context) {
	contact, err := h.Contacts.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Create(c *gin.Context) {
	var req dtos.ContactCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	contact, err := h.Service.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) Update(c *gin.Context) {
	var req dtos.ContactUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	contact, err := h.Contacts.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.Contacts.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type TaskHandler struct {
	base
	Tasks *repository.TaskRepository
}

func NewTaskHandler(tasks *repository.TaskRepository, log *zap.Logger) *TaskHandler {
	return &TaskHandler{base: base{Log: log}, Tasks: tasks}
}

func (h *TaskHandler) List(c *gin.Context) {
	var q dtos.TaskListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := repository.TaskFilter{
		Status:         q.Status,
		Priority:       q.Priority,
		ConversationID: q.ConversationID,
		OpportunityID:  q.OpportunityID,
	}
	page, err := h.Tasks.List(c.Request.Context(), middleware.UserID(c), filter, q.Params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.Tasks.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req dtos.TaskCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	task := req.Model(middleware.UserID(c))
	if err := h.Tasks.Create(c.Request.Context(), task); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req dtos.TaskUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	task, err := h.Tasks.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.Tasks.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ChallengeHandler struct {
	base
	Challenges *repository.ChallengeRepository
}

func NewChallengeHandler(challenges *repository.ChallengeRepository, log *zap.Logger) *ChallengeHandler {
	return &ChallengeHandler{base: base{Log: log}, Challenges: challenges}
}

func (h *ChallengeHandler) List(c *gin.Context) {
	var q dtos.ChallengeListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.Challenges.List(c.Request.Context(), middleware.UserID(c),
		repository.ChallengeFilter{Status: q.Status}, q.Params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	challenge, err := h.Challenges.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	var req dtos.ChallengeCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	challenge := req.Model(middleware.UserID(c), time.Now())
	if err := h.Challenges.Create(c.Request.Context(), challenge); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

func (h *ChallengeHandler) Update(c *gin.Context) {
	var req dtos.ChallengeUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	challenge, err := h.Challenges.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) Delete(c *gin.Context) {
	if err := h.Challenges.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
