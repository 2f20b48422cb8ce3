package room

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/middleware"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/service"
	"ankahee-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			panic(err)
		}
	}
	os.Exit(m.Run())
}

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) CreateRoom(ctx context.Context, userID, name string) (*model.Room, error) {
	args := m.Called(ctx, userID, name)
	room, _ := args.Get(0).(*model.Room)
	return room, args.Error(1)
}

func (m *MockRoomService) ListRooms(ctx context.Context) ([]*model.Room, error) {
	args := m.Called(ctx)
	rooms, _ := args.Get(0).([]*model.Room)
	return rooms, args.Error(1)
}

func (m *MockRoomService) GetRoom(ctx context.Context, userID, id string) (*model.RoomDetails, error) {
	args := m.Called(ctx, userID, id)
	room, _ := args.Get(0).(*model.RoomDetails)
	return room, args.Error(1)
}

func (m *MockRoomService) Join(ctx context.Context, userID, roomID string) (*model.RoomMember, error) {
	args := m.Called(ctx, userID, roomID)
	member, _ := args.Get(0).(*model.RoomMember)
	return member, args.Error(1)
}

func (m *MockRoomService) Leave(ctx context.Context, userID, roomID string) error {
	return m.Called(ctx, userID, roomID).Error(0)
}

func (m *MockRoomService) SendMessage(ctx context.Context, userID, roomID, content string) (*model.RoomMessage, error) {
	args := m.Called(ctx, userID, roomID, content)
	msg, _ := args.Get(0).(*model.RoomMessage)
	return msg, args.Error(1)
}

func (m *MockRoomService) IsMember(ctx context.Context, userID, roomID string) (bool, error) {
	args := m.Called(ctx, userID, roomID)
	return args.Bool(0), args.Error(1)
}

var _ service.RoomServiceInterface = (*MockRoomService)(nil)

func setupRouter(svc *MockRoomService) *gin.Engine {
	h := NewRoomHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "user-1")
		c.Next()
	})
	r.POST("/rooms", h.CreateRoom)
	r.GET("/rooms", h.ListRooms)
	r.GET("/rooms/:id", h.GetRoom)
	r.POST("/rooms/:id/members", h.Join)
	r.DELETE("/rooms/:id/members", h.Leave)
	r.POST("/rooms/:id/messages", h.SendMessage)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRoom(t *testing.T) {
	svc := new(MockRoomService)
	router := setupRouter(svc)
	svc.On("CreateRoom", mock.Anything, "user-1", "night owls").
		Return(&model.Room{ID: "room-1", Name: "night owls", OwnerID: "user-1"}, nil).Once()

	w := doJSON(router, "POST", "/rooms", `{"name":"night owls"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"room-1"`)

	assert.Equal(t, http.StatusBadRequest, doJSON(router, "POST", "/rooms", `{"name":"ab"}`).Code)
	svc.AssertExpectations(t)
}

func TestGetExpiredRoom(t *testing.T) {
	svc := new(MockRoomService)
	router := setupRouter(svc)
	svc.On("GetRoom", mock.Anything, "user-1", "room-1").
		Return(nil, errors.New(errors.ErrResourceNotFound, "room not found")).Once()

	assert.Equal(t, http.StatusNotFound, doJSON(router, "GET", "/rooms/room-1", "").Code)
}

func TestJoinAndLeave(t *testing.T) {
	svc := new(MockRoomService)
	router := setupRouter(svc)
	svc.On("Join", mock.Anything, "user-1", "room-1").
		Return(&model.RoomMember{RoomID: "room-1", UserID: "user-1"}, nil).Once()
	svc.On("Leave", mock.Anything, "user-1", "room-1").Return(nil).Once()

	assert.Equal(t, http.StatusOK, doJSON(router, "POST", "/rooms/room-1/members", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(router, "DELETE", "/rooms/room-1/members", "").Code)
	svc.AssertExpectations(t)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	svc := new(MockRoomService)
	router := setupRouter(svc)
	svc.On("SendMessage", mock.Anything, "user-1", "room-1", "hello").
		Return(nil, errors.New(errors.ErrNotMember, "join the room to send messages")).Once()

	w := doJSON(router, "POST", "/rooms/room-1/messages", `{"content":"hello"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, "POST", "/rooms/room-1/messages", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}
