package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/repositories"
)

const hasherPrefix = "sha256:"

// AuditLogger defines the logging contract used by the audit writer service.
type AuditLogger interface {
	Warnf(format string, args ...any)
}

type auditLogService struct {
	repo     repositories.AuditLogRepository
	clock    func() time.Time
	logger   AuditLogger
	hashSalt string
}

// AuditLogServiceDeps bundles constructor inputs for the audit writer service.
type AuditLogServiceDeps struct {
	Repository repositories.AuditLogRepository
	Clock      func() time.Time
	Logger     AuditLogger
	HashSalt   string
}

// NewAuditLogService creates an audit log writer backed by the supplied repository.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, fmt.Errorf("audit log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopAuditLogger{}
	}

	return &auditLogService{
		repo:     deps.Repository,
		clock:    func() time.Time { return clock().UTC() },
		logger:   logger,
		hashSalt: deps.HashSalt,
	}, nil
}

// Record persists an audit log entry after sanitising free-text fields. Repository
// failures are logged but do not bubble up to callers to avoid interrupting the
// primary mutation flow.
func (s *auditLogService) Record(ctx context.Context, record AuditLogRecord) {
	entry := s.buildEntry(record)
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Warnf("audit log append failed: %v", err)
	}
}

// ListRecent retrieves the newest audit entries.
func (s *auditLogService) ListRecent(ctx context.Context, limit int) ([]AuditLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *auditLogService) buildEntry(record AuditLogRecord) domain.AuditLog {
	now := s.clock()

	entry := domain.AuditLog{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Action:     sanitizeText(record.Action, 64),
		ActorID:    sanitizeText(record.ActorID, 128),
		ProductID:  sanitizeText(record.ProductID, 128),
		Notes:      sanitizeText(record.Notes, 512),
		OccurredAt: now,
	}

	if len(record.Detail) > 0 {
		detail := make(map[string]any, len(record.Detail))
		for key, value := range record.Detail {
			key = sanitizeText(key, 64)
			if key == "" {
				continue
			}
			detail[key] = value
		}
		entry.Detail = detail
	}

	// Client IPs are stored hashed; the trail only needs same-actor correlation.
	if ip := strings.TrimSpace(record.ClientIP); ip != "" {
		if entry.Detail == nil {
			entry.Detail = make(map[string]any, 1)
		}
		entry.Detail["ipHash"] = hasherPrefix + s.hashString(ip)
	}

	return entry
}

func (s *auditLogService) hashString(value string) string {
	sum := sha256.Sum256([]byte(s.hashSalt + strings.TrimSpace(value)))
	return hex.EncodeToString(sum[:])
}

func sanitizeText(value string, maxLen int) string {
	value = strings.TrimSpace(value)
	value = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, value)
	if maxLen > 0 && len(value) > maxLen {
		value = value[:maxLen]
	}
	return value
}

type noopAuditLogger struct{}

func (noopAuditLogger) Warnf(string, ...any) {}
