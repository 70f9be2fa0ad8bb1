package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/platform/neo4jdb"
)

// ProductGraph is a full copy of the stored catalog graph.
type ProductGraph struct {
	Products   []*types.Product
	Extensions []*types.ProductExtension
	Upgrades   []*types.UpgradePath
}

// SyncProductGraph replaces the Neo4j projection of the catalog with g. Nodes and
// relationships absent from g are removed. A nil client is a no-op.
func SyncProductGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, g ProductGraph) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	nodes := make([]map[string]any, 0, len(g.Products))
	nodeIDs := make([]string, 0, len(g.Products))
	for _, p := range g.Products {
		if p == nil || p.ID == uuid.Nil {
			continue
		}
		nodes = append(nodes, map[string]any{
			"id":            p.ID.String(),
			"product_id":    p.ExternalID,
			"name":          p.Name,
			"version":       deref(p.Version),
			"release":       deref(p.Release),
			"arch":          p.ArchLabel(),
			"friendly_name": p.FriendlyName,
			"synced_at":     now,
		})
		nodeIDs = append(nodeIDs, p.ID.String())
	}

	extends := make([]map[string]any, 0, len(g.Extensions))
	for _, e := range g.Extensions {
		if e == nil {
			continue
		}
		extends = append(extends, map[string]any{
			"id":          e.ID.String(),
			"root_id":     e.RootProductID.String(),
			"base_id":     e.BaseProductID.String(),
			"ext_id":      e.ExtensionProductID.String(),
			"recommended": e.Recommended,
			"synced_at":   now,
		})
	}

	upgrades := make([]map[string]any, 0, len(g.Upgrades))
	for _, u := range g.Upgrades {
		if u == nil {
			continue
		}
		upgrades = append(upgrades, map[string]any{
			"id":        u.ID.String(),
			"from_id":   u.FromProductID.String(),
			"to_id":     u.ToProductID.String(),
			"synced_at": now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Schema helpers may fail for restricted users.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT catalog_product_id_unique IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []struct {
			cypher string
			params map[string]any
		}{
			{`
MATCH (p:Product)
WHERE NOT p.id IN $ids
DETACH DELETE p
`, map[string]any{"ids": nodeIDs}},
			{`
UNWIND $nodes AS n
MERGE (p:Product {id: n.id})
SET p += n
`, map[string]any{"nodes": nodes}},
			{`
MATCH (:Product)-[r:EXTENDS|UPGRADES_TO]->(:Product)
DELETE r
`, nil},
			{`
UNWIND $rels AS r
MATCH (ext:Product {id: r.ext_id})
MATCH (base:Product {id: r.base_id})
MERGE (ext)-[e:EXTENDS {id: r.id}]->(base)
SET e.root_id = r.root_id,
    e.recommended = r.recommended,
    e.synced_at = r.synced_at
`, map[string]any{"rels": extends}},
			{`
UNWIND $rels AS r
MATCH (a:Product {id: r.from_id})
MATCH (b:Product {id: r.to_id})
MERGE (a)-[u:UPGRADES_TO {id: r.id}]->(b)
SET u.synced_at = r.synced_at
`, map[string]any{"rels": upgrades}},
		}
		for _, s := range steps {
			res, err := tx.Run(ctx, s.cypher, s.params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err == nil && log != nil {
		log.Debug("Synced product graph to neo4j", "products", len(nodes), "extensions", len(extends), "upgrades", len(upgrades))
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
