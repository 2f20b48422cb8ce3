package confession

import (
	"net/http"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/middleware"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/service"
	"ankahee-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConfessionHandler 告白、评论、反应、投票、虚空问题、收藏和热词
type ConfessionHandler struct {
	confessions service.ConfessionServiceInterface
	pulse       service.PulseServiceInterface
	mood        service.MoodServiceInterface
}

func NewConfessionHandler(
	confessions service.ConfessionServiceInterface,
	pulse service.PulseServiceInterface,
	mood service.MoodServiceInterface,
) *ConfessionHandler {
	return &ConfessionHandler{confessions: confessions, pulse: pulse, mood: mood}
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		util.Logger.Debug("请求参数校验失败",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "invalid request", err))
		return false
	}
	return true
}

// CreatePost 发布告白
func (h *ConfessionHandler) CreatePost(c *gin.Context) {
	var in service.CreatePostInput
	if !bindJSON(c, &in) {
		return
	}

	post, err := h.confessions.CreatePost(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, post)
}

// ListPosts ?mood=&sort=newest|popular|loved
func (h *ConfessionHandler) ListPosts(c *gin.Context) {
	filter := model.PostFilter{
		Sort:   model.PostSort(c.DefaultQuery("sort", string(model.SortNewest))),
		Viewer: middleware.CurrentUser(c),
	}
	switch filter.Sort {
	case model.SortNewest, model.SortPopular, model.SortLoved:
	default:
		errors.HandleError(c, errors.New(errors.ErrValidation, "unknown sort order"))
		return
	}
	if m := c.Query("mood"); m != "" {
		if !model.IsValidMood(m) {
			errors.HandleError(c, errors.New(errors.ErrValidation, "unknown mood"))
			return
		}
		mood := model.MoodTag(m)
		filter.Mood = &mood
	}

	posts, err := h.confessions.ListPosts(c.Request.Context(), filter)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, posts)
}

func (h *ConfessionHandler) GetPost(c *gin.Context) {
	post, err := h.confessions.GetPost(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, post)
}

// UpdatePost 仅作者可在编辑窗口内修改
func (h *ConfessionHandler) UpdatePost(c *gin.Context) {
	var req struct {
		Content string         `json:"content" binding:"required,min=10,max=500"`
		Mood    *model.MoodTag `json:"mood" binding:"omitempty,mood"`
	}
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.confessions.UpdatePost(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Content, req.Mood)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, post)
}

// BurnPost 作者主动永久删除
func (h *ConfessionHandler) BurnPost(c *gin.Context) {
	id := c.Param("id")
	if err := h.confessions.BurnPost(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"id": id})
}

// ListArchive 当前用户已过期的帖子
func (h *ConfessionHandler) ListArchive(c *gin.Context) {
	posts, err := h.confessions.ListArchive(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, posts)
}

// Pulse 当前存活帖子的高频词
func (h *ConfessionHandler) Pulse(c *gin.Context) {
	words, err := h.pulse.Pulse(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, words)
}

// SuggestMood 尽力而为，失败时返回空建议
func (h *ConfessionHandler) SuggestMood(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"mood": h.mood.Suggest(c.Request.Context(), req.Text)})
}
