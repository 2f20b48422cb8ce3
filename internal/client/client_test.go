package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T, register func(r *gin.RouterGroup)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r.Group("/api"))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientDecodesDataEnvelope(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	srv := newAPIServer(t, func(r *gin.RouterGroup) {
		r.POST("/posts/:id/comments", func(c *gin.Context) {
			gotAuth = c.GetHeader("Authorization")
			require.NoError(t, c.ShouldBindJSON(&gotBody))
			errors.HandleSuccess(c, http.StatusCreated, &model.Comment{
				ID: gotBody["id"], PostID: c.Param("id"), UserID: "u1", Content: gotBody["content"],
			})
		})
	})

	comment, err := New(srv.URL+"/api/", "tok").CreateComment(context.Background(), "p1", "c1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, map[string]string{"id": "c1", "content": "hello"}, gotBody)
	assert.Equal(t, &model.Comment{ID: "c1", PostID: "p1", UserID: "u1", Content: "hello"}, comment)
}

func TestClientListPostsQuery(t *testing.T) {
	var gotQuery string
	srv := newAPIServer(t, func(r *gin.RouterGroup) {
		r.GET("/posts", func(c *gin.Context) {
			gotQuery = c.Request.URL.RawQuery
			errors.HandleSuccess(c, http.StatusOK, []*model.PostDetails{{Post: model.Post{ID: "p1"}}})
		})
	})

	mood := model.MoodSecret
	posts, err := New(srv.URL+"/api", "").ListPosts(context.Background(), &mood, model.SortLoved)
	require.NoError(t, err)
	assert.Equal(t, "mood=Secret&sort=loved", gotQuery)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
}

func TestClientErrorBodyBecomesAppError(t *testing.T) {
	srv := newAPIServer(t, func(r *gin.RouterGroup) {
		r.POST("/polls/:id/votes", func(c *gin.Context) {
			errors.HandleError(c, errors.New(errors.ErrAlreadyVoted, errors.MsgAlreadyVoted))
		})
		r.POST("/story/segments", func(c *gin.Context) {
			c.String(http.StatusBadGateway, "upstream down")
		})
	})
	cl := New(srv.URL+"/api", "tok")

	_, err := cl.Vote(context.Background(), "q1", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyVoted))
	assert.Equal(t, errors.MsgAlreadyVoted, errors.UserMessage(err))

	_, err = cl.AddSegment(context.Background(), "and then")
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
	assert.Equal(t, errors.MsgGeneric, errors.UserMessage(err))
}

func TestClientNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url+"/api", "tok").Bookmark(context.Background(), "p1")
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
	assert.True(t, errors.IsTransient(err))
}

func TestClientSuggestMoodEmpty(t *testing.T) {
	srv := newAPIServer(t, func(r *gin.RouterGroup) {
		r.POST("/mood/suggest", func(c *gin.Context) {
			errors.HandleSuccess(c, http.StatusOK, gin.H{"mood": nil})
		})
	})

	mood, err := New(srv.URL+"/api", "tok").SuggestMood(context.Background(), "short")
	require.NoError(t, err)
	assert.Nil(t, mood)
}
