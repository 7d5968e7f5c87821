package timex

import (
	"testing"
	"time"
)

func TestTime_UnixMethods(t *testing.T) {
	// Create a fixed time
	// 创建一个固定时间
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tt := Time(now)

	// Test Unix()
	if tt.Unix() != now.Unix() {
		t.Errorf("Unix() = %v, want %v", tt.Unix(), now.Unix())
	}

	// Test UnixMilli()
	if tt.UnixMilli() != now.UnixMilli() {
		t.Errorf("UnixMilli() = %v, want %v", tt.UnixMilli(), now.UnixMilli())
	}

	// Test UnixMicro()
	if tt.UnixMicro() != now.UnixMicro() {
		t.Errorf("UnixMicro() = %v, want %v", tt.UnixMicro(), now.UnixMicro())
	}

	// Test UnixNano()
	if tt.UnixNano() != now.UnixNano() {
		t.Errorf("UnixNano() = %v, want %v", tt.UnixNano(), now.UnixNano())
	}

	// Verify it's not returning time.Now() by waiting a bit
	// 通过等待一会确认它不是返回 time.Now()
	time.Sleep(10 * time.Millisecond)
	if tt.Unix() != now.Unix() {
		t.Errorf("Unix() changed after sleep, it should be static. got %v, want %v", tt.Unix(), now.Unix())
	}
}

func TestTime_JSONRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)
	tt := Time(now)

	b, err := tt.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(b) != `"2024-05-06 07:08:09"` {
		t.Errorf("MarshalJSON() = %s", b)
	}

	var back Time
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if !time.Time(back).Equal(now) {
		t.Errorf("UnmarshalJSON() = %v, want %v", time.Time(back), now)
	}
}

func TestTime_Scan(t *testing.T) {
	var tt Time
	if err := tt.Scan("2024-05-06 07:08:09"); err != nil {
		t.Fatalf("Scan(string) error = %v", err)
	}
	if tt.String() != "2024-05-06 07:08:09" {
		t.Errorf("Scan(string) = %s", tt.String())
	}
	if err := tt.Scan(nil); err != nil || !tt.IsZero() {
		t.Errorf("Scan(nil) = %v, %v", tt, err)
	}
	if err := tt.Scan(42); err == nil {
		t.Error("Scan(int) expected error")
	}
}
