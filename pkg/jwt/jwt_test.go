package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Dreamstarlake/EduNexus/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing-2026",
		TokenTTL:  time.Hour,
	})
}

func TestGenerateAndParseToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateToken("user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("期望 UserID=user-1，实际=%s", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("期望 Username=alice，实际=%s", claims.Username)
	}
	if claims.Issuer != Issuer {
		t.Errorf("期望 Issuer=%s，实际=%s", Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}

	// 固定 1 小时有效期
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 59*time.Minute || ttl > 61*time.Minute {
		t.Errorf("TTL 期望约 1h，实际=%v", ttl)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if err == nil {
		t.Error("期望解析无效 token 返回错误")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret: "different-secret-key",
		TokenTTL:  time.Hour,
	})

	token, _ := m1.GenerateToken("user-1", "alice")
	_, err := m2.ParseToken(token)
	if err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  1 * time.Millisecond,
	})

	token, _ := m.GenerateToken("user-1", "alice")
	time.Sleep(1100 * time.Millisecond)

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestDecodeUnverified(t *testing.T) {
	m := newTestManager()
	token, _ := m.GenerateToken("user-9", "bob")

	claims, err := DecodeUnverified(token)
	if err != nil {
		t.Fatalf("DecodeUnverified 失败: %v", err)
	}
	if claims.Username != "bob" || claims.UserID != "user-9" {
		t.Errorf("声明不符: %+v", claims)
	}

	if _, err := DecodeUnverified("not-a-jwt"); err == nil {
		t.Error("非法 token 应返回错误")
	}
}

func TestClaims_PayloadShape(t *testing.T) {
	m := newTestManager()
	token, _ := m.GenerateToken("user-7", "carol")

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token 应为三段，实际 %d", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("解码 payload 失败: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("解析 payload 失败: %v", err)
	}
	if payload["id"] != "user-7" || payload["username"] != "carol" {
		t.Errorf("payload 应含 {id, username}，实际 %v", payload)
	}
	if _, ok := payload["user_id"]; ok {
		t.Error("payload 不应含 user_id")
	}
}
