// Package abuse records failed login attempts per client IP and decides when
// an address is blocked from further attempts.
package abuse

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"inkgate/internal/auth/models"
	"inkgate/internal/platform/metrics"
	dErrors "inkgate/pkg/domain-errors"
	psync "inkgate/pkg/platform/sync"
)

// Store is the persistence port for blocked-IP records.
type Store interface {
	FindByIP(ctx context.Context, ip string) ([]*models.BlockedIP, error)
	Save(ctx context.Context, record *models.BlockedIP) error
}

// Tracker implements the IP abuse policy: every failed attempt bumps the
// counter on the canonical record for that IP, and any record at or past the
// threshold blocks the address.
type Tracker struct {
	store     Store
	locks     *psync.ShardedMutex
	threshold int
	// blockExpiry of zero means a block never lapses on its own.
	blockExpiry time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

func WithBlockExpiry(d time.Duration) Option {
	return func(t *Tracker) { t.blockExpiry = d }
}

func WithNow(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(store Store, threshold int, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		locks:     psync.NewShardedMutex(),
		threshold: threshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RegisterFailedAttempt bumps the failure counter for ip, stamping the
// offending user agent and attempt time. Concurrent inserts can leave
// duplicate rows for an IP; the most recently stamped row is the canonical
// one to mutate, so the per-IP lock plus last-writer-wins reconciliation
// keeps the count convergent.
func (t *Tracker) RegisterFailedAttempt(ctx context.Context, ip, userAgent string) error {
	t.locks.Lock(ip)
	defer t.locks.Unlock(ip)

	records, err := t.store.FindByIP(ctx, ip)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load abuse records")
	}

	now := t.now()
	record := canonical(records)
	if record == nil {
		record = &models.BlockedIP{ID: uuid.New(), IP: ip}
	}
	record.FailureCount++
	record.UserAgent = userAgent
	record.Device = summarizeUserAgent(userAgent)
	record.LastFailureAt = now

	if err := t.store.Save(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save abuse record")
	}

	if record.FailureCount == t.threshold {
		if t.metrics != nil {
			t.metrics.IPsBlocked.Inc()
		}
		if t.logger != nil {
			t.logger.InfoContext(ctx, "ip blocked",
				"ip", ip,
				"failure_count", record.FailureCount,
				"device", record.Device,
				"event", "ip_blocked",
				"log_type", "audit",
			)
		}
	}
	return nil
}

// IsBlocked reports whether any record for ip has reached the failure
// threshold. With a configured expiry, blocks lapse once the last failure
// falls out of the window; by default they are permanent until manual
// remediation.
func (t *Tracker) IsBlocked(ctx context.Context, ip string) (bool, error) {
	records, err := t.store.FindByIP(ctx, ip)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load abuse records")
	}

	now := t.now()
	for _, record := range records {
		if record.FailureCount < t.threshold {
			continue
		}
		if t.blockExpiry > 0 && now.After(record.LastFailureAt.Add(t.blockExpiry)) {
			continue
		}
		return true, nil
	}
	return false, nil
}

// canonical picks the record to mutate when duplicates exist: the one with
// the most recent failure timestamp wins.
func canonical(records []*models.BlockedIP) *models.BlockedIP {
	var latest *models.BlockedIP
	for _, r := range records {
		if latest == nil || r.LastFailureAt.After(latest.LastFailureAt) {
			latest = r
		}
	}
	return latest
}

// summarizeUserAgent reduces a raw User-Agent to "Browser on OS" for audit
// readability. The raw header is stored alongside.
func summarizeUserAgent(raw string) string {
	if raw == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	os := ua.OS()

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
