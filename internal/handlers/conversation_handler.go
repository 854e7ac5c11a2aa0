package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/pipeline-crm/internal/dtos"
	"github.com/justsurfingit/pipeline-crm/internal/middleware"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/justsurfingit/pipeline-crm/internal/services"
	"go.uber.org/zap"
)

type ConversationHandler struct {
	base
	Conversations *repository.ConversationRepository
	Analysis      *services.AnalysisService
}

func NewConversationHandler(convs *repository.ConversationRepository, analysis *services.AnalysisService, log *zap.Logger) *ConversationHandler {
	return &ConversationHandler{base: base{Log: log}, Conversations: convs, Analysis: analysis}
}

func (h *ConversationHandler) List(c *gin.Context) {
	var q dtos.ConversationListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := repository.ConversationFilter{
		ContactID:     q.ContactID,
		OpportunityID: q.OpportunityID,
		StageID:       q.StageID,
		CategoryID:    q.CategoryID,
		Channel:       q.Channel,
	}
	page, err := h.Conversations.List(c.Request.Context(), middleware.UserID(c), filter, q.Params())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.Conversations.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req dtos.ConversationCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	conv := req.Model(middleware.UserID(c))
	if err := h.Conversations.Create(c.Request.Context(), conv); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ConversationHandler) Update(c *gin.Context) {
	var req dtos.ConversationUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	conv, err := h.Conversations.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.Conversations.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	msgs, err := h.Conversations.Messages(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": msgs})
}

func (h *ConversationHandler) AddMessage(c *gin.Context) {
	var req dtos.MessageCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	msg := req.Model(middleware.UserID(c), c.Param("id"))
	if err := h.Conversations.AddMessage(c.Request.Context(), msg); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) UpdateMessage(c *gin.Context) {
	var req dtos.MessageUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	msg, err := h.Conversations.UpdateMessage(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// ToggleMessage flips a message between pending and confirmed.
func (h *ConversationHandler) ToggleMessage(c *gin.Context) {
	msg, err := h.Conversations.ToggleMessage(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	if err := h.Conversations.DeleteMessage(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Analyze streams the model's read of the conversation as server-sent events.
func (h *ConversationHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()
	chunks, err := h.Analysis.AnalyzeConversation(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	setSSEHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				c.SSEvent("done", gin.H{})
				return false
			}
			if chunk.Err != nil {
				c.SSEvent("error", gin.H{"message": "analysis failed"})
				return false
			}
			c.SSEvent("chunk", chunk.Text)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}
