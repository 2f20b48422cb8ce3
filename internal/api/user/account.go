package user

import (
	"net/http"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/identity"
	"ankahee-backend/internal/middleware"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/service"
	"ankahee-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccountHandler 当前账户的匿名身份和注销
type AccountHandler struct {
	userService service.UserServiceInterface
}

func NewAccountHandler(userService service.UserServiceInterface) *AccountHandler {
	return &AccountHandler{userService}
}

// Me 返回当前用户的匿名展示信息，头像和颜色由用户ID确定性生成
func (h *AccountHandler) Me(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	errors.HandleSuccess(c, http.StatusOK, gin.H{
		"id":           userID,
		"display_name": model.DisplayName,
		"avatar":       identity.AvatarFor(userID),
		"color":        identity.ColorFor(userID, 70, 60),
	})
}

// DeleteAccount 删除账户及其全部内容，随后令牌作废
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	if err := h.userService.DeleteAccount(c.Request.Context(), userID); err != nil {
		util.Logger.Error("删除账户失败", zap.String("user_id", userID), zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	h.userService.Logout(c.GetString(middleware.ContextToken))
	errors.HandleSuccess(c, http.StatusOK, gin.H{"message": "Account deleted."})
}
