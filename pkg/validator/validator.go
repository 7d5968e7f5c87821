// Package validator wires go-playground/validator into gin binding
// Package validator 将 go-playground/validator 接入 gin 参数绑定
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CustomValidator gin binding.StructValidator implementation
// CustomValidator 实现 gin 的 binding.StructValidator
type CustomValidator struct {
	once     sync.Once
	validate *validator.Validate
}

var _ binding.StructValidator = (*CustomValidator)(nil)

// NewCustomValidator creates the validator
// NewCustomValidator 创建验证器
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct validates structs, pointers to structs and slices of them
// ValidateStruct 校验结构体、结构体指针及其切片
func (v *CustomValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}

	value := reflect.ValueOf(obj)
	switch value.Kind() {
	case reflect.Ptr:
		if value.IsNil() {
			return nil
		}
		if value.Elem().Kind() != reflect.Struct {
			return v.ValidateStruct(value.Elem().Interface())
		}
		return v.validateStruct(obj)
	case reflect.Struct:
		return v.validateStruct(obj)
	case reflect.Slice, reflect.Array:
		count := value.Len()
		errs := make(binding.SliceValidationError, 0)
		for i := 0; i < count; i++ {
			if err := v.ValidateStruct(value.Index(i).Interface()); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) == 0 {
			return nil
		}
		return errs
	default:
		return nil
	}
}

func (v *CustomValidator) validateStruct(obj any) error {
	v.lazyinit()
	return v.validate.Struct(obj)
}

// Engine returns the underlying *validator.Validate
// Engine 返回底层的 *validator.Validate
func (v *CustomValidator) Engine() any {
	v.lazyinit()
	return v.validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New(validator.WithRequiredStructEnabled())
		v.validate.SetTagName("binding")
	})
}

// IsLinkableTitle reports whether title can be referenced as [[title]]:
// non-empty, single line, and free of the link delimiters.
// IsLinkableTitle 判断标题能否以 [[title]] 形式被引用
func IsLinkableTitle(title string) bool {
	if title == "" {
		return false
	}
	if strings.ContainsAny(title, "\r\n") {
		return false
	}
	return !strings.Contains(title, "[[") && !strings.Contains(title, "]]")
}

// RegisterCustom registers project tags on the gin validator engine
// RegisterCustom 在 gin 验证器上注册自定义标签
func RegisterCustom() error {
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return validate.RegisterValidation("linktitle", func(fl validator.FieldLevel) bool {
		return IsLinkableTitle(fl.Field().String())
	})
}
