package db

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/patrickwarner/admatcher/internal/models"
)

// UniverseKey is the set holding every servable ad id.
const UniverseKey = "ads:active"

// UserHistoryKey is the hash of a user's stored values for one feature type.
func UserHistoryKey(nation string, ft models.FeatureType, uid string) string {
	return fmt.Sprintf("uf:%s:%s:%s", nation, ft, uid)
}

// IndexKey is the sorted set of ad ids indexed under one feature value.
func IndexKey(nation string, ft models.FeatureType, value string) string {
	return fmt.Sprintf("fi:%s:%s:%s", nation, ft, value)
}

// StatisticKey is the hash of statistics for an ad under one feature value.
func StatisticKey(nation string, ft models.FeatureType, value, adID string) string {
	return fmt.Sprintf("fs:%s:%s:%s:%s", nation, ft, value, adID)
}

// RedisStore is the feature model kept in Redis. It is safe for concurrent use.
type RedisStore struct {
	Client *redis.Client
	// IndexMinScore drops index entries scored below it.
	IndexMinScore float64
	// IndexLimit caps the ads returned per feature value; zero means no cap.
	IndexLimit int64
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(ctx context.Context, addr string, minScore float64, limit int64) (*RedisStore, error) {
	rs := &RedisStore{
		Client:        redis.NewClient(&redis.Options{Addr: addr}),
		IndexMinScore: minScore,
		IndexLimit:    limit,
	}

	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// GetUserHistoryFeature returns the user's stored values for ft.
func (r *RedisStore) GetUserHistoryFeature(ctx context.Context, uid, nation string, ft models.FeatureType) (map[string]models.FeatureInfo, error) {
	vals, err := r.Client.HGetAll(ctx, UserHistoryKey(nation, ft, uid)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.FeatureInfo, len(vals))
	for v, raw := range vals {
		out[v] = models.FeatureInfo{Raw: raw}
	}
	return out, nil
}

func (r *RedisStore) indexRange() *redis.ZRangeBy {
	return &redis.ZRangeBy{
		Min:   strconv.FormatFloat(r.IndexMinScore, 'f', -1, 64),
		Max:   "+inf",
		Count: r.IndexLimit,
	}
}

// GetCandidatesByFeature returns ad ids indexed under value, best first.
func (r *RedisStore) GetCandidatesByFeature(ctx context.Context, nation string, ft models.FeatureType, value string) ([]string, error) {
	return r.Client.ZRevRangeByScore(ctx, IndexKey(nation, ft, value), r.indexRange()).Result()
}

// GetCandidatesByFeatures resolves many index lookups in a single pipeline.
func (r *RedisStore) GetCandidatesByFeatures(ctx context.Context, nation string, pairs []models.FeaturePair) (map[models.FeaturePair][]string, error) {
	result := make(map[models.FeaturePair][]string, len(pairs))
	if len(pairs) == 0 {
		return result, nil
	}

	pipe := r.Client.Pipeline()
	commands := make(map[models.FeaturePair]*redis.StringSliceCmd, len(pairs))
	for _, p := range pairs {
		commands[p] = pipe.ZRevRangeByScore(ctx, IndexKey(nation, p.Type, p.Value), r.indexRange())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("index pipeline exec failed: %w", err)
	}

	for p, cmd := range commands {
		ids, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("index %s=%s: %w", p.Type, p.Value, err)
		}
		result[p] = ids
	}
	return result, nil
}

// GetCandidateStatistic returns every statistic field stored for adID under value.
func (r *RedisStore) GetCandidateStatistic(ctx context.Context, nation string, ft models.FeatureType, value, adID string) (map[string]string, error) {
	return r.Client.HGetAll(ctx, StatisticKey(nation, ft, value, adID)).Result()
}

// LoadAdIDs returns the members of the universe set.
func (r *RedisStore) LoadAdIDs(ctx context.Context) ([]string, error) {
	return r.Client.SMembers(ctx, UniverseKey).Result()
}

// PutUserHistory stores values for a user's feature type.
func (r *RedisStore) PutUserHistory(ctx context.Context, uid, nation string, ft models.FeatureType, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return r.Client.HSet(ctx, UserHistoryKey(nation, ft, uid), values).Err()
}

// IndexCandidate adds adID to the index of value with the given rank score.
func (r *RedisStore) IndexCandidate(ctx context.Context, nation string, ft models.FeatureType, value, adID string, score float64) error {
	return r.Client.ZAdd(ctx, IndexKey(nation, ft, value), redis.Z{Score: score, Member: adID}).Err()
}

// PutStatistic stores statistic fields for adID under value.
func (r *RedisStore) PutStatistic(ctx context.Context, nation string, ft models.FeatureType, value, adID string, stats map[string]string) error {
	if len(stats) == 0 {
		return nil
	}
	return r.Client.HSet(ctx, StatisticKey(nation, ft, value, adID), stats).Err()
}

// AddToUniverse adds ad ids to the universe set.
func (r *RedisStore) AddToUniverse(ctx context.Context, adIDs ...string) error {
	if len(adIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(adIDs))
	for i, id := range adIDs {
		members[i] = id
	}
	return r.Client.SAdd(ctx, UniverseKey, members...).Err()
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
