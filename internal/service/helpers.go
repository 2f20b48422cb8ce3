package service

import (
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/repository"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
)

// storeError 把仓库错误转换成 AppError
func storeError(err error, what string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.New(errors.ErrResourceNotFound, what+" not found")
	}
	if stderrors.Is(err, repository.ErrDuplicate) {
		return errors.Wrap(errors.ErrResourceExists, what+" already exists", err)
	}
	util.Logger.Error("数据库操作失败", zap.Error(err), zap.String("entity", what))
	return errors.Wrap(errors.ErrDatabase, "database error", err)
}

// checkLength 去掉首尾空白后检查字符数
func checkLength(field, value string, min, max int) (string, error) {
	value = strings.TrimSpace(value)
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return "", errors.New(errors.ErrValidation,
			fmt.Sprintf("%s must be between %d and %d characters", field, min, max))
	}
	return value, nil
}

func requireOwner(ownerID, userID, what string) error {
	if ownerID != userID {
		return errors.New(errors.ErrForbidden, "you can only modify your own "+what)
	}
	return nil
}
