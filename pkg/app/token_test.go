package app

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	cfg := TokenConfig{
		SecretKey: "user-secret",
		Expiry:    24 * time.Hour,
		Issuer:    "user-issuer",
	}
	tm := NewTokenManager(cfg)

	uid := int64(1001)
	nickname := "cli"
	ip := "127.0.0.1"

	// 1. 测试生成和解析
	token, err := tm.Generate(uid, nickname, ip)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parsedUser, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if parsedUser.UID != uid {
		t.Errorf("Expected UID %d, got %d", uid, parsedUser.UID)
	}
	if parsedUser.Nickname != nickname {
		t.Errorf("Expected Nickname %s, got %s", nickname, parsedUser.Nickname)
	}
	if parsedUser.Issuer != cfg.Issuer {
		t.Errorf("Expected Issuer %s, got %s", cfg.Issuer, parsedUser.Issuer)
	}

	// 2. 测试过期
	shortExpiryCfg := cfg
	shortExpiryCfg.Expiry = -1 * time.Second
	expiredToken, err := NewTokenManager(shortExpiryCfg).Generate(uid, nickname, ip)
	if err != nil {
		t.Fatalf("Generate (expired) failed: %v", err)
	}
	if err := tm.Validate(expiredToken); err == nil {
		t.Error("Expected error for expired token, but got nil")
	}

	// 3. 测试错误的密钥
	wrongKeyCfg := cfg
	wrongKeyCfg.SecretKey = "wrong-user-secret"
	wrongToken, _ := NewTokenManager(wrongKeyCfg).Generate(uid, nickname, ip)
	if _, err := tm.Parse(wrongToken); err == nil {
		t.Error("Expected error for token generated with different secret key, but got nil")
	}

	// 4. 测试篡改后的 Token
	if _, err := tm.Parse(token + "xyz"); err == nil {
		t.Error("Expected error for tampered user token, but got nil")
	}
}

func TestParseTokenWithKey_RejectsOwnerless(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "k"})
	token, err := tm.Generate(0, "", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := ParseTokenWithKey(token, "k"); err == nil {
		t.Error("Expected error for token without owner, but got nil")
	}
}

func TestGetUID_FromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUID(c) != 0 {
		t.Fatal("Expected zero uid without token")
	}

	tm := NewTokenManager(TokenConfig{SecretKey: "k"})
	token, _ := tm.Generate(7, "", "")
	if err := SetTokenToContextWithKey(c, token, "k"); err != nil {
		t.Fatalf("SetTokenToContextWithKey failed: %v", err)
	}
	if got := GetUID(c); got != 7 {
		t.Errorf("Expected uid 7, got %d", got)
	}
}
