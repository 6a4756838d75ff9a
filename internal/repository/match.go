package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/arena-client/internal/entity"
)

var ErrMatchNotFound = errors.New("match not found in cache")

const matchKeyPrefix = "match:"

// MatchRepository caches finished matches for replay. Records never change once a match is over.
type MatchRepository interface {
	Save(ctx context.Context, record *entity.MatchRecord, ttl time.Duration) error
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbMatch struct {
	client *redis.Client
}

func NewMatchRepository(client *redis.Client) MatchRepository {
	return &dbMatch{
		client: client,
	}
}

func matchKey(id string) string {
	return matchKeyPrefix + id
}

// Save stores the record; a zero ttl keeps it until deleted.
func (that *dbMatch) Save(ctx context.Context, record *entity.MatchRecord, ttl time.Duration) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	if err = that.client.Set(ctx, matchKey(record.ID), recordJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	response, err := that.client.Get(ctx, matchKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	var record entity.MatchRecord
	if err = json.Unmarshal(response, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &record, nil
}

func (that *dbMatch) DeleteByID(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, matchKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete match by id: %w", err)
	}

	return nil
}
