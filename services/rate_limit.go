package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Fababum/portfolio/dto"
	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

const (
	BucketLogin        = "login"
	BucketLogout       = "logout"
	BucketAdminRead    = "admin_read"
	BucketUpdateStatus = "update_status"
	BucketTrackVisit   = "track_visit"
	BucketChat         = "chat"
	BucketSetup        = "setup"
)

// SweepThreshold is the map size above which a check first purges elapsed windows.
const SweepThreshold = 10000

// RateLimitPolicy is the fixed-window budget for one bucket.
type RateLimitPolicy struct {
	Bucket      string
	MaxRequests int
	Window      time.Duration
	Message     string
}

func DefaultRateLimitPolicies() []RateLimitPolicy {
	return []RateLimitPolicy{
		{Bucket: BucketLogin, MaxRequests: 10, Window: 5 * time.Minute, Message: "Too many login attempts. Please try again in 5 minutes."},
		{Bucket: BucketLogout, MaxRequests: 10, Window: time.Minute, Message: "Too many requests. Please try again later."},
		{Bucket: BucketAdminRead, MaxRequests: 30, Window: time.Minute, Message: "Too many requests. Please try again later."},
		{Bucket: BucketUpdateStatus, MaxRequests: 20, Window: time.Minute, Message: "Too many status updates. Please try again later."},
		{Bucket: BucketTrackVisit, MaxRequests: 30, Window: time.Minute, Message: "Too many requests. Please try again later."},
		{Bucket: BucketChat, MaxRequests: 10, Window: time.Minute, Message: "Too many chat messages. Please slow down."},
		{Bucket: BucketSetup, MaxRequests: 5, Window: 15 * time.Minute, Message: "Too many setup attempts. Please try again later."},
	}
}

// ==================== FIXED WINDOW LIMITER ====================

type rateLimitRecord struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter counts requests per identifier in fixed windows. Each
// instance is independent; being limited in one says nothing about another.
type FixedWindowLimiter struct {
	policy  RateLimitPolicy
	now     func() time.Time
	mutex   sync.Mutex
	records map[string]*rateLimitRecord
}

func NewFixedWindowLimiter(policy RateLimitPolicy) *FixedWindowLimiter {
	if policy.MaxRequests < 1 {
		policy.MaxRequests = 1
	}
	if policy.Window <= 0 {
		policy.Window = time.Minute
	}
	return &FixedWindowLimiter{
		policy:  policy,
		now:     time.Now,
		records: make(map[string]*rateLimitRecord),
	}
}

// WithClock swaps the time source, for tests.
func (l *FixedWindowLimiter) WithClock(now func() time.Time) *FixedWindowLimiter {
	l.now = now
	return l
}

func (l *FixedWindowLimiter) Policy() RateLimitPolicy {
	return l.policy
}

func (l *FixedWindowLimiter) IsRateLimited(identifier string) bool {
	return !l.Check(identifier).Allowed
}

func (l *FixedWindowLimiter) Check(identifier string) dto.RateLimitInfo {
	now := l.now()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if len(l.records) > SweepThreshold {
		l.cleanupLocked(now)
	}

	record, ok := l.records[identifier]
	if !ok || now.After(record.resetAt) {
		record = &rateLimitRecord{count: 1, resetAt: now.Add(l.policy.Window)}
		l.records[identifier] = record
		return l.info(record, now, true)
	}

	// Blocked requests are not counted.
	if record.count >= l.policy.MaxRequests {
		return l.info(record, now, false)
	}

	record.count++
	return l.info(record, now, true)
}

func (l *FixedWindowLimiter) info(record *rateLimitRecord, now time.Time, allowed bool) dto.RateLimitInfo {
	retryAfter := int((record.resetAt.Sub(now) + time.Second - 1) / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	return dto.RateLimitInfo{
		Allowed:    allowed,
		Remaining:  l.policy.MaxRequests - record.count,
		ResetTime:  record.resetAt,
		RetryAfter: retryAfter,
	}
}

// Count reports the current count for identifier, zero when none is tracked.
func (l *FixedWindowLimiter) Count(identifier string) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if record, ok := l.records[identifier]; ok {
		return record.count
	}
	return 0
}

func (l *FixedWindowLimiter) Reset(identifier string) {
	l.mutex.Lock()
	delete(l.records, identifier)
	l.mutex.Unlock()
}

// Cleanup drops every record whose window has elapsed.
func (l *FixedWindowLimiter) Cleanup() int {
	now := l.now()
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.cleanupLocked(now)
}

func (l *FixedWindowLimiter) cleanupLocked(now time.Time) int {
	removed := 0
	for key, record := range l.records {
		if now.After(record.resetAt) {
			delete(l.records, key)
			removed++
		}
	}
	return removed
}

func (l *FixedWindowLimiter) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.records)
}

// ==================== SERVICE ====================

type RateLimitService struct {
	context.DefaultService

	limiters        map[string]*FixedWindowLimiter
	cleanupInterval time.Duration
	closed          chan struct{}
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

// NewRateLimitService builds the service with one limiter per policy.
func NewRateLimitService(policies ...RateLimitPolicy) *RateLimitService {
	svc := &RateLimitService{cleanupInterval: 5 * time.Minute}
	svc.setPolicies(policies)
	return svc
}

func (svc *RateLimitService) setPolicies(policies []RateLimitPolicy) {
	svc.limiters = make(map[string]*FixedWindowLimiter, len(policies))
	for _, p := range policies {
		svc.limiters[p.Bucket] = NewFixedWindowLimiter(p)
	}
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	policies := DefaultRateLimitPolicies()
	for i := range policies {
		key := "RATE_LIMIT_" + strings.ToUpper(policies[i].Bucket)
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		maxRequests, window, err := ParseRateLimit(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		policies[i].MaxRequests = maxRequests
		policies[i].Window = window
	}
	svc.setPolicies(policies)

	svc.cleanupInterval = 5 * time.Minute
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.closed = make(chan struct{})
	go svc.startCleanupJob()

	for bucket, l := range svc.limiters {
		log.WithFields(log.Fields{
			"bucket":       bucket,
			"max_requests": l.policy.MaxRequests,
			"window":       l.policy.Window.String(),
		}).Debug("Rate limit policy loaded")
	}
	return nil
}

func (svc *RateLimitService) Shutdown() {
	if svc.closed != nil {
		close(svc.closed)
	}
}

// ParseRateLimit reads "<max>/<duration>", e.g. "10/5m".
func ParseRateLimit(raw string) (int, time.Duration, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid rate limit %q, want <max>/<duration>", raw)
	}
	maxRequests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || maxRequests < 1 {
		return 0, 0, fmt.Errorf("invalid max requests in %q", raw)
	}
	window, err := time.ParseDuration(strings.TrimSpace(parts[1]))
	if err != nil || window <= 0 {
		return 0, 0, fmt.Errorf("invalid window in %q", raw)
	}
	return maxRequests, window, nil
}

func (svc *RateLimitService) Limiter(bucket string) (*FixedWindowLimiter, bool) {
	l, ok := svc.limiters[bucket]
	return l, ok
}

func (svc *RateLimitService) Check(bucket, identifier string) (dto.RateLimitInfo, error) {
	l, ok := svc.limiters[bucket]
	if !ok {
		return dto.RateLimitInfo{}, fmt.Errorf("unknown rate limit bucket %q", bucket)
	}

	info := l.Check(identifier)
	if !info.Allowed {
		rateLimitRejectionsTotal.WithLabelValues(bucket).Inc()
	}
	return info, nil
}

func (svc *RateLimitService) Reset(bucket, identifier string) {
	if l, ok := svc.limiters[bucket]; ok {
		l.Reset(identifier)
	}
}

func (svc *RateLimitService) Message(bucket string) string {
	if l, ok := svc.limiters[bucket]; ok && l.policy.Message != "" {
		return l.policy.Message
	}
	return "Too many requests. Please try again later."
}

// ==================== BACKGROUND JOBS ====================

// CleanupOldRecords sweeps every bucket. Expiry is still checked lazily on each
// request, so skipping a sweep never lets a stale window through.
func (svc *RateLimitService) CleanupOldRecords() int {
	removed := 0
	for _, l := range svc.limiters {
		removed += l.Cleanup()
	}
	return removed
}

func (svc *RateLimitService) startCleanupJob() {
	ticker := time.NewTicker(svc.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := svc.CleanupOldRecords(); removed > 0 {
				log.WithField("removed", removed).Debug("Rate limit cleanup completed")
			}
		case <-svc.closed:
			return
		}
	}
}
