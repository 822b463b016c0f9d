package ctxutil

import (
	"context"
	"testing"
)

func TestUserIDFromCtx(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ctx    context.Context
		want   string
		wantOK bool
	}{
		{"set", WithUserID(context.Background(), "user-42"), "user-42", true},
		{"missing", context.Background(), "", false},
		{"empty", WithUserID(context.Background(), ""), "", false},
		{"wrong type", context.WithValue(context.Background(), ctxKey("user_id"), 42), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := UserIDFromCtx(tt.ctx)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("UserIDFromCtx = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRequestIDFromCtx(t *testing.T) {
	t.Parallel()

	if got := RequestIDFromCtx(WithRequestID(context.Background(), "req-123")); got != "req-123" {
		t.Fatalf("expected req-123, got %s", got)
	}
	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}
