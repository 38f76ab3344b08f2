package v1

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 注册自定义 binding 规则，需在处理请求前调用一次。
//
//	snowflake: 字符串形式的正整数雪花 ID
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("snowflake", func(fl validator.FieldLevel) bool {
			_, ok := parseNotificationID(fl.Field().String())
			return ok
		})
	})
}
