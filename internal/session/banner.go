package session

import "time"

// DefaultBannerTimeout is how long an error stays on screen.
const DefaultBannerTimeout = 5 * time.Second

// Banner is the single dismissible error area. A message auto-hides after
// the timeout, and the same message is not shown again until the timeout
// since its last display has passed.
type Banner struct {
	timeout time.Duration
	now     func() time.Time

	message   string
	shownAt   time.Time
	dismissed bool
}

func NewBanner(timeout time.Duration, now func() time.Time) *Banner {
	if timeout <= 0 {
		timeout = DefaultBannerTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Banner{timeout: timeout, now: now}
}

// Show displays msg and reports whether it was shown. A repeat of the
// last message within the window is suppressed.
func (b *Banner) Show(msg string) bool {
	if msg == "" {
		return false
	}
	now := b.now()
	if msg == b.message && now.Sub(b.shownAt) < b.timeout {
		return false
	}
	b.message, b.shownAt, b.dismissed = msg, now, false
	return true
}

func (b *Banner) Visible() bool {
	return b.message != "" && !b.dismissed && b.now().Sub(b.shownAt) < b.timeout
}

// Message returns the visible message, or "".
func (b *Banner) Message() string {
	if !b.Visible() {
		return ""
	}
	return b.message
}

// Dismiss hides the banner. The dedupe window keeps running.
func (b *Banner) Dismiss() {
	b.dismissed = true
}
