package confession

import (
	"net/http"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/middleware"
	"ankahee-backend/internal/model"

	"github.com/gin-gonic/gin"
)

// SetReaction 每个用户每个帖子一个反应，重复设置即替换
func (h *ConfessionHandler) SetReaction(c *gin.Context) {
	var req struct {
		Reaction string `json:"reaction" binding:"required,reaction"`
	}
	if !bindJSON(c, &req) {
		return
	}

	reaction, err := h.confessions.SetReaction(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), model.ReactionKind(req.Reaction))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, reaction)
}

func (h *ConfessionHandler) RemoveReaction(c *gin.Context) {
	if err := h.confessions.RemoveReaction(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"post_id": c.Param("id")})
}

// Vote 投票，重复投票返回 409
func (h *ConfessionHandler) Vote(c *gin.Context) {
	var req struct {
		Option int `json:"option" binding:"required,poll_option"`
	}
	if !bindJSON(c, &req) {
		return
	}

	vote, err := h.confessions.Vote(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Option)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, vote)
}

// AnswerVoid 用一个词回答虚空问题
func (h *ConfessionHandler) AnswerVoid(c *gin.Context) {
	var req struct {
		Word string `json:"word" binding:"required,single_word,max=30"`
	}
	if !bindJSON(c, &req) {
		return
	}

	answer, err := h.confessions.AnswerVoid(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Word)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, answer)
}

func (h *ConfessionHandler) VoidAnswers(c *gin.Context) {
	summary, err := h.confessions.VoidAnswers(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, summary)
}

func (h *ConfessionHandler) Bookmark(c *gin.Context) {
	if err := h.confessions.Bookmark(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"post_id": c.Param("id"), "bookmarked": true})
}

func (h *ConfessionHandler) RemoveBookmark(c *gin.Context) {
	if err := h.confessions.RemoveBookmark(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"post_id": c.Param("id"), "bookmarked": false})
}

// ListBookmarks 收藏中仍然存活的帖子
func (h *ConfessionHandler) ListBookmarks(c *gin.Context) {
	posts, err := h.confessions.ListBookmarks(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, posts)
}
