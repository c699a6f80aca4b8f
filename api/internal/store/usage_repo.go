package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UsageRecord — одна строка журнала обращений к модели. Текст задания и
// решения сюда не пишется.
type UsageRecord struct {
	RequestID        string // пусто для бота
	Source           string // "http" | "proxy" | "bot"
	ChatID           int64
	Engine           string
	Model            string
	Status           string // "ok" | "error"
	Duration         time.Duration
	PromptTokens     int
	CompletionTokens int
}

// Recorder — то, что нужно ручкам и боту; nil-реализация допустима через Nop.
type Recorder interface {
	Record(ctx context.Context, rec UsageRecord) error
}

// Nop — журнал выключен.
type Nop struct{}

func (Nop) Record(context.Context, UsageRecord) error { return nil }

type UsageRepo struct{ DB *sql.DB }

func NewUsageRepo(db *sql.DB) *UsageRepo { return &UsageRepo{DB: db} }

const schema = `
create table if not exists solve_usage (
  id                bigserial primary key,
  created_at        timestamptz not null default now(),
  request_id        text,
  source            text not null,
  chat_id           bigint,
  engine            text not null,
  model             text not null,
  status            text not null,
  duration_ms       bigint not null,
  prompt_tokens     integer not null default 0,
  completion_tokens integer not null default 0
);
create index if not exists solve_usage_created_at_idx on solve_usage (created_at);`

// EnsureSchema создаёт таблицу журнала, если её ещё нет.
func (r *UsageRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

func (r *UsageRepo) Record(ctx context.Context, rec UsageRecord) error {
	const q = `
insert into solve_usage (request_id, source, chat_id, engine, model, status, duration_ms, prompt_tokens, completion_tokens)
values (nullif($1, ''), $2, nullif($3, 0), $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, q,
		rec.RequestID, rec.Source, rec.ChatID, rec.Engine, rec.Model, rec.Status,
		rec.Duration.Milliseconds(), rec.PromptTokens, rec.CompletionTokens,
	)
	return err
}

// EngineStats — сводка по движку за период.
type EngineStats struct {
	Engine           string
	Calls            int64
	Errors           int64
	AvgDuration      time.Duration
	PromptTokens     int64
	CompletionTokens int64
}

// Stats агрегирует журнал с момента since.
func (r *UsageRepo) Stats(ctx context.Context, since time.Time) ([]EngineStats, error) {
	const q = `
select engine,
       count(*),
       count(*) filter (where status <> 'ok'),
       coalesce(avg(duration_ms), 0)::bigint,
       coalesce(sum(prompt_tokens), 0),
       coalesce(sum(completion_tokens), 0)
from solve_usage
where created_at >= $1
group by engine
order by engine`
	rows, err := r.DB.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EngineStats
	for rows.Next() {
		var (
			s     EngineStats
			avgMs int64
		)
		if err := rows.Scan(&s.Engine, &s.Calls, &s.Errors, &avgMs, &s.PromptTokens, &s.CompletionTokens); err != nil {
			return nil, err
		}
		s.AvgDuration = time.Duration(avgMs) * time.Millisecond
		out = append(out, s)
	}
	return out, rows.Err()
}

// PurgeOlderThan удаляет старые записи журнала, чтобы не раздувать БД.
func (r *UsageRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from solve_usage where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

// RunRetention раз в every удаляет записи старше olderThan, пока жив ctx.
func (r *UsageRepo) RunRetention(ctx context.Context, every, olderThan time.Duration, log *zap.Logger) {
	if every <= 0 || olderThan <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := r.PurgeOlderThan(ctx, olderThan)
			if err != nil {
				log.Warn("usage purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("usage purged", zap.Int64("rows", n))
			}
		}
	}
}

// OpenUsage подключает журнал по DSN и создаёт схему.
func OpenUsage(ctx context.Context, dsn string) (*UsageRepo, error) {
	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	repo := NewUsageRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}

func (r *UsageRepo) Close() error { return r.DB.Close() }
