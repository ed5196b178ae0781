package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

// TestMagicLinkMessage escapes the URL in HTML and keeps it verbatim in text.
func TestMagicLinkMessage(t *testing.T) {
	url := "http://localhost:8080/auth/callback?token=abc.def&x=1"
	req, err := MagicLinkMessage("a@example.com", url, 15*time.Minute)
	if err != nil {
		t.Fatalf("MagicLinkMessage: %v", err)
	}
	if len(req.To) != 1 || req.To[0] != "a@example.com" {
		t.Errorf("To = %v", req.To)
	}
	if !strings.Contains(req.HTML, "token=abc.def&amp;x=1") {
		t.Errorf("HTML body missing escaped link:\n%s", req.HTML)
	}
	if !strings.Contains(req.Text, url) || !strings.Contains(req.Text, "15 minutes") {
		t.Errorf("Text body = %q", req.Text)
	}
}

func TestFormatTTL(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{15 * time.Minute, "15 minutes"},
		{2 * time.Hour, "2 hours"},
		{90 * time.Minute, "90 minutes"},
	}
	for _, tt := range tests {
		if got := formatTTL(tt.in); got != tt.want {
			t.Errorf("formatTTL(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestNoopSender never fails and returns a message id.
func TestNoopSender(t *testing.T) {
	res, err := NewNoopSender().Send(context.Background(), SendRequest{To: []string{"a@example.com"}, Subject: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(res.MessageID, "noop-") {
		t.Errorf("MessageID = %q", res.MessageID)
	}
}
