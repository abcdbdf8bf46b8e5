package workflow

import (
	"context"
	"sync"
	"time"

	"go-paygate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RuleStore loads and stores versioned approval-rule configurations
// per (activity, module) pair.
type RuleStore interface {
	Save(ctx context.Context, cfg *RuleConfig) error
	GetByID(ctx context.Context, id string) (*RuleConfig, error)
	// Find returns every rule set (global and scoped) for the pair
	Find(ctx context.Context, activity, module string) ([]RuleConfig, error)
	List(ctx context.Context) ([]RuleConfig, error)
	Delete(ctx context.Context, id string) error
}

// MongoRuleStore keeps current configs in "approval_rule_configs" and
// archives every superseded version in "approval_rule_config_history".
// Lookups are read-mostly, so results are cached until the next write.
type MongoRuleStore struct {
	collection *mongo.Collection
	history    *mongo.Collection

	mu    sync.RWMutex
	cache map[string][]RuleConfig
}

func NewRuleStore(mongodb *database.MongodbDB) RuleStore {
	return &MongoRuleStore{
		collection: mongodb.DB.Collection("approval_rule_configs"),
		history:    mongodb.DB.Collection("approval_rule_config_history"),
		cache:      make(map[string][]RuleConfig),
	}
}

func cacheKey(activity, module string) string {
	return activity + "|" + module
}

func (s *MongoRuleStore) Save(ctx context.Context, cfg *RuleConfig) error {
	now := time.Now()

	if cfg.ID.IsZero() {
		cfg.ID = primitive.NewObjectID()
		cfg.Version = 1
		cfg.CreatedAt = now
		cfg.UpdatedAt = now
		if _, err := s.collection.InsertOne(ctx, cfg); err != nil {
			return err
		}
		s.invalidate(cfg.Activity, cfg.Module)
		return nil
	}

	// Archive the current version before replacing it
	var prev RuleConfig
	err := s.collection.FindOne(ctx, bson.M{"_id": cfg.ID}).Decode(&prev)
	switch err {
	case nil:
		archived := prev
		archived.ID = primitive.NewObjectID()
		if _, err := s.history.InsertOne(ctx, bson.M{
			"config_id":   prev.ID,
			"config":      archived,
			"archived_at": now,
		}); err != nil {
			return err
		}
		cfg.Version = prev.Version + 1
		cfg.CreatedAt = prev.CreatedAt
	case mongo.ErrNoDocuments:
		cfg.Version = 1
		cfg.CreatedAt = now
	default:
		return err
	}

	cfg.UpdatedAt = now
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": cfg.ID}, cfg)
	if err != nil {
		return err
	}
	s.invalidate(cfg.Activity, cfg.Module)
	return nil
}

func (s *MongoRuleStore) GetByID(ctx context.Context, id string) (*RuleConfig, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var cfg RuleConfig
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *MongoRuleStore) Find(ctx context.Context, activity, module string) ([]RuleConfig, error) {
	key := cacheKey(activity, module)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	cursor, err := s.collection.Find(ctx, bson.M{"activity": activity, "module": module})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []RuleConfig
	if err = cursor.All(ctx, &configs); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = configs
	s.mu.Unlock()

	return configs, nil
}

func (s *MongoRuleStore) List(ctx context.Context) ([]RuleConfig, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []RuleConfig
	if err = cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (s *MongoRuleStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	var cfg RuleConfig
	if err := s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&cfg); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return err
	}

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return err
	}
	s.invalidate(cfg.Activity, cfg.Module)
	return nil
}

func (s *MongoRuleStore) invalidate(activity, module string) {
	s.mu.Lock()
	delete(s.cache, cacheKey(activity, module))
	s.mu.Unlock()
}
