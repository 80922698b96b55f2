// Package publisher pushes finished insight tables to a Redis stream for the
// report-rendering side.
package publisher

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/pable/go-pbp-insights/internal/model"
)

// RedisStreamPublisher appends one stream entry per report table.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisStreamPublisher wraps an existing client.
func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

// Dial parses redisURL, connects and pings the server.
func Dial(ctx context.Context, redisURL, stream string) (*RedisStreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStreamPublisher(client, stream), nil
}

// Close closes the Redis connection.
func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}

// Tables lists the report tables in publishing order.
func Tables(r *model.Report) []Table {
	return []Table{
		{"summary", r.Summary},
		{"team_runs", r.TeamRuns},
		{"team_comebacks", r.TeamComebacks},
		{"clutch_stats", r.ClutchStats},
		{"quarter_profiles", r.Quarters},
		{"runs", r.Runs},
		{"comebacks", r.Comebacks},
		{"blown_leads", r.BlownLeads},
		{"closers", r.Closers},
		{"responsibility", r.Responsibility},
		{"q4_heroes", r.Q4Heroes},
		{"player_activity", r.Activity},
		{"player_distribution", r.Distribution},
	}
}

// Table is one named, serializable slice of a report.
type Table struct {
	Name string
	Rows any
}

// PublishReport adds every table of r to the stream. It stops at the first
// failed write and returns the number of entries written.
func (p *RedisStreamPublisher) PublishReport(ctx context.Context, competition string, r *model.Report) (int, error) {
	written := 0
	for _, t := range Tables(r) {
		data, err := json.Marshal(t.Rows)
		if err != nil {
			return written, fmt.Errorf("marshal %s: %w", t.Name, err)
		}
		err = p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]interface{}{
				"competition": competition,
				"table":       t.Name,
				"data":        string(data),
				"timestamp":   time.Now().Unix(),
			},
		}).Err()
		if err != nil {
			return written, fmt.Errorf("xadd %s/%s: %w", p.stream, t.Name, err)
		}
		written++
	}
	return written, nil
}
