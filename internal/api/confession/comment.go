package confession

import (
	"net/http"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	// ID 客户端乐观插入时使用的临时ID，变更事件按它对齐
	ID      string `json:"id" binding:"omitempty,uuid"`
	Content string `json:"content" binding:"required,notblank,max=280"`
}

func (h *ConfessionHandler) ListComments(c *gin.Context) {
	comments, err := h.confessions.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, comments)
}

func (h *ConfessionHandler) CreateComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.confessions.CreateComment(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.ID, req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, comment)
}

func (h *ConfessionHandler) UpdateComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,notblank,max=280"`
	}
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.confessions.UpdateComment(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, comment)
}

func (h *ConfessionHandler) DeleteComment(c *gin.Context) {
	id := c.Param("id")
	if err := h.confessions.DeleteComment(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"id": id})
}
