package story

import (
	"net/http"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/middleware"
	"ankahee-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// StoryHandler 每日故事和未寄出的信
type StoryHandler struct {
	stories service.StoryServiceInterface
	letters service.LetterServiceInterface
}

func NewStoryHandler(stories service.StoryServiceInterface, letters service.LetterServiceInterface) *StoryHandler {
	return &StoryHandler{stories: stories, letters: letters}
}

// Today 当天故事ID、提示语和按顺序排列的句子
func (h *StoryHandler) Today(c *gin.Context) {
	story, err := h.stories.Today(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, story)
}

// AddSegment 不能连续写两句
func (h *StoryHandler) AddSegment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,notblank,max=280"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "sentence must be 1 to 280 characters", err))
		return
	}

	segment, err := h.stories.AddSegment(c.Request.Context(), middleware.CurrentUser(c), req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, segment)
}

func (h *StoryHandler) WriteLetter(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,min=20,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "letter must be 20 to 5000 characters", err))
		return
	}

	letter, err := h.letters.Write(c.Request.Context(), middleware.CurrentUser(c), req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, letter)
}

func (h *StoryHandler) ListLetters(c *gin.Context) {
	letters, err := h.letters.List(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, letters)
}
