// Package catalog loads the read-only card-pack catalog the core consumes.
// Card-pack import from a third-party content database, and the
// HTML-to-Markdown text conversion that produces the pack file this package
// reads, are out of scope for the core (spec.md §1); this package only
// loads the already-converted catalog and serves it to the engine.
package catalog

import (
	"fmt"
	"os"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cahserver/server/internal/cards"
)

// packFile is the on-disk shape of the catalog file.
type packFile struct {
	Packs []packEntry `yaml:"packs"`
}

type packEntry struct {
	Name       string   `yaml:"name"`
	BlackCards []blackEntry `yaml:"black_cards"`
	WhiteCards []string `yaml:"white_cards"`
}

type blackEntry struct {
	Text      string `yaml:"text"`
	PickCount int    `yaml:"pick_count"`
	DrawCount int    `yaml:"draw_count"`
}

// Catalog is the read-only, boot-time-loaded registry of card packs.
// CardPack holds slice fields and so is not a comparable type; the registry
// is a plain ordered slice plus an id index rather than a collection.List.
type Catalog struct {
	ordered []cards.CardPack
	byID    map[uuid.UUID]cards.CardPack
}

// Empty returns a Catalog with no packs, useful for tests.
func Empty() *Catalog {
	return &Catalog{byID: make(map[uuid.UUID]cards.CardPack)}
}

// Load reads the catalog file at path and builds the in-memory registry.
func Load(path string, log slog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	var pf packFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", path, err)
	}

	cat := Empty()
	for _, entry := range pf.Packs {
		pack := cards.CardPack{ID: uuid.New(), Name: entry.Name}
		for _, bc := range entry.BlackCards {
			pickCount := bc.PickCount
			if pickCount < 1 {
				pickCount = 1
			}
			pack.BlackCards = append(pack.BlackCards, cards.BlackCard{
				Text:      bc.Text,
				PickCount: pickCount,
				DrawCount: bc.DrawCount,
				Pack:      entry.Name,
			})
		}
		for _, text := range entry.WhiteCards {
			t := text
			pack.WhiteCards = append(pack.WhiteCards, cards.WhiteCard{
				SlotID: uuid.New(),
				Text:   &t,
				Pack:   entry.Name,
			})
		}
		if _, dup := cat.byID[pack.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate pack id %s", pack.ID)
		}
		cat.ordered = append(cat.ordered, pack)
		cat.byID[pack.ID] = pack
		if log != nil {
			log.Infof("loaded card pack %q (%d black, %d white)", pack.Name, len(pack.BlackCards), len(pack.WhiteCards))
		}
	}
	return cat, nil
}

// FindByID looks up a single pack by id.
func (c *Catalog) FindByID(id uuid.UUID) (cards.CardPack, bool) {
	pack, ok := c.byID[id]
	return pack, ok
}

// Resolve looks up every id in ids, failing if any is unknown.
func (c *Catalog) Resolve(ids []uuid.UUID) ([]cards.CardPack, error) {
	packs := make([]cards.CardPack, 0, len(ids))
	for _, id := range ids {
		pack, ok := c.FindByID(id)
		if !ok {
			return nil, fmt.Errorf("catalog: unknown card pack %s", id)
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// All returns every pack in the catalog, in load order.
func (c *Catalog) All() []cards.CardPack {
	out := make([]cards.CardPack, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Summaries returns the client-facing summary of every pack, used in the
// handshake's config payload.
func (c *Catalog) Summaries() []cards.Summary {
	all := c.All()
	out := make([]cards.Summary, len(all))
	for i, p := range all {
		out[i] = p.Summarize()
	}
	return out
}
