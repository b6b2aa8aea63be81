package service

import (
	"errors"
	"testing"
	"time"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m, err := NewJWTManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	token, err := m.Generate("console")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	sub, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub != "console" {
		t.Fatalf("subject=%q", sub)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("err=%v, want ErrNoSecret", err)
	}

	m, _ := NewJWTManager("test-secret", time.Hour)
	other, _ := NewJWTManager("other-secret", time.Hour)
	expired, _ := NewJWTManager("test-secret", -time.Minute)

	foreign, _ := other.Generate("x")
	stale, _ := expired.Generate("x")

	for name, tok := range map[string]string{"garbage": "not.a.token", "foreign": foreign, "expired": stale} {
		if _, err := m.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: err=%v, want ErrInvalidToken", name, err)
		}
	}
}
