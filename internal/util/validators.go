package util

import (
	"strings"
	"unicode"

	"ankahee-backend/internal/model"

	"github.com/go-playground/validator/v10"
)

// RegisterValidators 注册业务相关的自定义校验规则
func RegisterValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"mood":        ValidateMood,
		"reaction":    ValidateReaction,
		"single_word": ValidateSingleWord,
		"poll_option": ValidatePollOption,
		"notblank":    ValidateNotBlank,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMood 验证情绪标签，空值视为未设置
func ValidateMood(fl validator.FieldLevel) bool {
	mood := fl.Field().String()
	return mood == "" || model.IsValidMood(mood)
}

// ValidateReaction 验证反应类型
func ValidateReaction(fl validator.FieldLevel) bool {
	return model.IsValidReaction(fl.Field().String())
}

// ValidateSingleWord 只允许一个单词
func ValidateSingleWord(fl validator.FieldLevel) bool {
	word := strings.TrimSpace(fl.Field().String())
	if word == "" {
		return false
	}
	return strings.IndexFunc(word, unicode.IsSpace) < 0
}

// ValidatePollOption 投票选项只能是 1 或 2
func ValidatePollOption(fl validator.FieldLevel) bool {
	opt := fl.Field().Int()
	return opt == 1 || opt == 2
}

// ValidateNotBlank 去掉空白后不能为空
func ValidateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
