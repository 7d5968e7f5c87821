// Package timex wraps time.Time with the database and JSON formats used across the service
// Package timex 封装 time.Time，统一数据库与 JSON 的时间格式
package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout is the JSON layout of Time // JSON 时间格式
const Layout = "2006-01-02 15:04:05"

// Time is a time.Time that marshals as Layout in local time
// Time 以本地时间 Layout 格式序列化
type Time time.Time

// Now returns the current time // 返回当前时间
func Now() Time {
	return Time(time.Now())
}

// MarshalJSON implements json.Marshaler
func (t Time) MarshalJSON() ([]byte, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(fmt.Sprintf(`"%s"`, tt.Local().Format(Layout))), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == `""` || s == "null" {
		*t = Time(time.Time{})
		return nil
	}
	parsed, err := time.ParseInLocation(`"`+Layout+`"`, s, time.Local)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

// Value implements driver.Valuer
func (t Time) Value() (driver.Value, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return nil, nil
	}
	return tt, nil
}

// Scan implements sql.Scanner
func (t *Time) Scan(v interface{}) error {
	switch value := v.(type) {
	case nil:
		*t = Time(time.Time{})
	case time.Time:
		*t = Time(value)
	case string:
		return t.parseString(value)
	case []byte:
		return t.parseString(string(value))
	default:
		return fmt.Errorf("timex: cannot scan %T into Time", v)
	}
	return nil
}

func (t *Time) parseString(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", Layout} {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			*t = Time(parsed)
			return nil
		}
	}
	return fmt.Errorf("timex: cannot parse %q", s)
}

// GormDataType lets gorm pick the dialect's datetime column type
func (Time) GormDataType() string {
	return "time"
}

// String formats t with Layout
func (t Time) String() string {
	return time.Time(t).Format(Layout)
}

// IsZero reports whether t is the zero time
func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}
