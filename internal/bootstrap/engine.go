package bootstrap

import (
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/internal/config"
	"github.com/juneof/promo-engine/pkg/cms"
	"github.com/juneof/promo-engine/pkg/lifecycle"
	"github.com/juneof/promo-engine/pkg/route"
	"github.com/juneof/promo-engine/pkg/store"
)

// InitStore builds the suppression store on top of the Redis client. Both
// the durable dismissals and the per-session shown markers live in the same
// instance; the marker keys carry the session TTL so they vanish with the
// session.
func InitStore(client *redis.Client, sessionTTL time.Duration) *store.Store {
	kv := store.NewRedisKV(client)
	return store.New(kv, kv, sessionTTL)
}

// InitEngine builds the product-context broker and the session manager.
func InitEngine(cfg *config.Config, source cms.RuleSource, st *store.Store) (*lifecycle.Manager, *route.Broker) {
	broker := route.NewBroker()
	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	manager := lifecycle.NewManager(source, st, broker, sessionTTL)
	logrus.Infof("modal engine ready (session ttl %s)", sessionTTL)
	return manager, broker
}
