// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"port only", ":8080", false},
		{"host and port", "127.0.0.1:8080", false},
		{"ipv6", "[::1]:8080", false},
		{"empty", "", true},
		{"no port", "localhost", true},
		{"empty port", "localhost:", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.ListenAddr("listen", tt.addr)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_CIDRs(t *testing.T) {
	v := New()
	v.CIDRs("trustedProxies", []string{"10.0.0.0/8", "192.168.1.1", " ", "nope"})
	if v.IsValid() {
		t.Fatal("expected error for invalid entry")
	}
	if got := len(v.Errors()); got != 1 {
		t.Fatalf("expected 1 error, got %d", got)
	}
	if v.Errors()[0].Value != "nope" {
		t.Errorf("unexpected failing value %v", v.Errors()[0].Value)
	}
}

func TestValidator_FloatRange(t *testing.T) {
	v := New()
	v.FloatRange("rate", 0.5, 0, 1)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.FloatRange("rate", 1.5, 0, 1)
	if v.IsValid() {
		t.Fatal("expected error for out-of-range value")
	}
}

func TestValidator_OneOf(t *testing.T) {
	v := New()
	v.OneOf("backend", "redis", []string{"memory", "redis"})
	v.OneOf("backend", "etcd", []string{"memory", "redis"})
	if got := len(v.Errors()); got != 1 {
		t.Fatalf("expected 1 error, got %d", got)
	}
}

func TestValidationError_Aggregates(t *testing.T) {
	v := New()
	v.NotEmpty("a", "")
	v.Positive("b", 0)

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors()) != 2 {
		t.Errorf("expected 2 errors, got %d", len(verr.Errors()))
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined message, got %q", err.Error())
	}
}

func TestValidator_NoErrors(t *testing.T) {
	v := New()
	v.NotEmpty("a", "x")
	v.NonNegative("b", 0)
	if err := v.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	if _, err := ParseLogLevel("debug"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseLogLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}
