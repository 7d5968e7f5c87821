package convert

import (
	"github.com/bytedance/sonic"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// StructAssign copies same-named fields from src into dst
// StructAssign 把 src 与 dst 同名字段的值复制到 dst 中
func StructAssign(src any, dst any) error {
	if err := copier.Copy(dst, src); err != nil {
		return errors.Wrap(err, "struct assign")
	}
	return nil
}

// StructToMap converts a struct to a map through its JSON form
// StructToMap 通过 JSON 将结构体转换为 map
func StructToMap(param any) (map[string]any, error) {
	raw, err := sonic.Marshal(param)
	if err != nil {
		return nil, errors.Wrap(err, "marshal struct")
	}
	data := make(map[string]any)
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "unmarshal to map")
	}
	return data, nil
}
