package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const magicLinkSubject = "Your Routine OS sign-in link"

var magicLinkHTML = template.Must(template.New("magic_link").Parse(`<p>Hi,</p>
<p>Use the link below to sign in to Routine OS. It works once and expires in {{.TTL}}.</p>
<p><a href="{{.URL}}">Sign in to Routine OS</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`))

// MagicLinkMessage builds the sign-in email for to, pointing at url.
// PRE: url is absolute
// POST: Returns a request with both HTML and plain-text bodies
func MagicLinkMessage(to, url string, ttl time.Duration) (SendRequest, error) {
	var buf bytes.Buffer
	if err := magicLinkHTML.Execute(&buf, struct {
		URL string
		TTL string
	}{URL: url, TTL: formatTTL(ttl)}); err != nil {
		return SendRequest{}, fmt.Errorf("render magic link email: %w", err)
	}
	return SendRequest{
		To:      []string{to},
		Subject: magicLinkSubject,
		HTML:    buf.String(),
		Text:    fmt.Sprintf("Sign in to Routine OS: %s\n\nThis link works once and expires in %s.", url, formatTTL(ttl)),
	}, nil
}

func formatTTL(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
