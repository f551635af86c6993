package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/indicrafts/api/internal/domain"
	pfirestore "github.com/indicrafts/api/internal/platform/firestore"
	"github.com/indicrafts/api/internal/repositories"
)

const auditLogCollection = "auditLogs"

type auditLogDocument struct {
	Action     string         `firestore:"action"`
	ActorID    string         `firestore:"actorId"`
	ProductID  string         `firestore:"productId,omitempty"`
	Notes      string         `firestore:"notes,omitempty"`
	Detail     map[string]any `firestore:"detail,omitempty"`
	OccurredAt time.Time      `firestore:"occurredAt"`
}

// AuditLogRepository persists moderation audit entries in Firestore.
type AuditLogRepository struct {
	base *pfirestore.BaseRepository[auditLogDocument]
}

// NewAuditLogRepository constructs a Firestore-backed audit log repository.
func NewAuditLogRepository(provider *pfirestore.Provider) (*AuditLogRepository, error) {
	if provider == nil {
		return nil, errors.New("audit log repository requires firestore provider")
	}
	return &AuditLogRepository{
		base: pfirestore.NewBaseRepository[auditLogDocument](provider, auditLogCollection, nil, nil),
	}, nil
}

var _ repositories.AuditLogRepository = (*AuditLogRepository)(nil)

// Append stores one audit entry under its pre-assigned id. Entries are
// immutable; a duplicate id is a conflict, never an overwrite.
func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLog) error {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return errors.New("audit log repository: entry id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	doc := auditLogDocument{
		Action:     entry.Action,
		ActorID:    entry.ActorID,
		ProductID:  entry.ProductID,
		Notes:      entry.Notes,
		Detail:     entry.Detail,
		OccurredAt: entry.OccurredAt,
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("auditLogs.append", err)
	}
	return nil
}

// ListRecent returns the newest entries, most recent first.
func (r *AuditLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		query = query.OrderBy("occurredAt", firestore.Desc)
		if limit > 0 {
			query = query.Limit(limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditLog, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, domain.AuditLog{
			ID:         doc.ID,
			Action:     doc.Data.Action,
			ActorID:    doc.Data.ActorID,
			ProductID:  doc.Data.ProductID,
			Notes:      doc.Data.Notes,
			Detail:     doc.Data.Detail,
			OccurredAt: doc.Data.OccurredAt,
		})
	}
	return entries, nil
}
