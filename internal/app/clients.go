package app

import (
	"context"
	"fmt"

	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/platform/neo4jdb"
	"github.com/yungbote/catalog-backend/internal/realtime/bus"
)

type Clients struct {
	Neo4j  *neo4jdb.Client
	Events bus.Bus
}

// wireClients connects the optional collaborators. Neo4j stays nil and events go
// through an in-process bus when their addresses are not configured.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	neo, err := neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	var events bus.Bus = bus.NewMemoryBus()
	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(cfg.Redis, log)
		if err != nil {
			if neo != nil {
				_ = neo.Close(context.Background())
			}
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		events = b
	}

	return Clients{Neo4j: neo, Events: events}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Events != nil {
		_ = c.Events.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(context.Background())
	}
}
