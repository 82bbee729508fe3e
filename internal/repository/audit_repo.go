package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-contacts-api/internal/model"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	before, err := marshalSnapshot(entry.Before)
	if err != nil {
		return fmt.Errorf("marshal before data: %w", err)
	}
	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return fmt.Errorf("marshal after data: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (action, occurred_at, actor_user_id, actor_email, actor_role, actor_ip,
		  status, resource, before_data, after_data, error_text)
		 VALUES ($1, $2::timestamptz, NULLIF($3::bigint, 0), $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.Action, entry.OccurredAt,
		entry.Actor.UserID, entry.Actor.Email, string(entry.Actor.Role), entry.Actor.IP,
		entry.Status, entry.Resource, before, after, entry.Error)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

// Query filters entries newest first. Action and status match case-insensitively,
// resource by substring.
func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query.Page = max(query.Page, 1)
	if query.Limit <= 0 {
		query.Limit = DefaultAuditLimit
	}
	query.Limit = min(query.Limit, MaxAuditLimit)

	var f filter
	if action := strings.TrimSpace(query.Action); action != "" {
		f.add("lower(action) = lower($%d)", action)
	}
	if query.ActorID > 0 {
		f.add("actor_user_id = $%d", query.ActorID)
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		f.add("lower(status) = lower($%d)", status)
	}
	if resource := strings.TrimSpace(query.Resource); resource != "" {
		f.add("lower(resource) LIKE lower($%d)", "%"+resource+"%")
	}
	if from := strings.TrimSpace(query.From); from != "" {
		f.add("occurred_at >= $%d::timestamptz", from)
	}
	if to := strings.TrimSpace(query.To); to != "" {
		f.add("occurred_at <= $%d::timestamptz", to)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_entries "+f.where(), f.args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit entries: %w", err)
	}

	limit, args := f.page(query.Page, query.Limit)
	rows, err := r.pool.Query(ctx,
		`SELECT action, occurred_at, COALESCE(actor_user_id, 0), actor_email, actor_role, actor_ip,
		        status, resource, before_data, after_data, error_text
		 FROM audit_entries `+f.where()+`
		 ORDER BY occurred_at DESC, id DESC `+limit, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("scan audit entries: %w", err)
	}

	return entries, model.NewMeta(query.Page, query.Limit, total), nil
}

func scanAuditEntry(row pgx.CollectableRow) (model.AuditEntry, error) {
	var (
		e             model.AuditEntry
		occurredAt    time.Time
		role          string
		before, after []byte
	)
	if err := row.Scan(
		&e.Action, &occurredAt,
		&e.Actor.UserID, &e.Actor.Email, &role, &e.Actor.IP,
		&e.Status, &e.Resource, &before, &after, &e.Error,
	); err != nil {
		return model.AuditEntry{}, err
	}

	e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
	e.Actor.Role = model.Role(role)
	e.Before = unmarshalSnapshot(before)
	e.After = unmarshalSnapshot(after)
	return e, nil
}

func marshalSnapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// unmarshalSnapshot returns nil for empty or unreadable JSON.
func unmarshalSnapshot(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
