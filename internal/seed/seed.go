// Package seed loads card catalogs from YAML files. Every entry goes through the
// same schema checks, rules and store writes as a card created over HTTP.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/services"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

// Catalog is the top level of a seed file
type Catalog struct {
	Cards []map[string]any `yaml:"cards"`
}

// EntryError describes a catalog entry that could not be loaded
type EntryError struct {
	Index int
	Name  string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("cards[%d] (%s): %v", e.Index, e.Name, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Result summarises a catalog load
type Result struct {
	Created  int
	Existing int
	Failed   []*EntryError
}

// Loader creates catalog cards through the card service
type Loader struct {
	cards *services.CardService
	log   *zap.Logger
}

func NewLoader(cards *services.CardService, log *zap.Logger) *Loader {
	return &Loader{cards: cards, log: log.Named("seed")}
}

// LoadFile loads the catalog at path
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load creates every card in the catalog read from r. Cards that already exist
// are counted and skipped; invalid entries are collected and do not stop the load.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Result, error) {
	var catalog Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return &Result{}, nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	res := &Result{}
	for i, entry := range catalog.Cards {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		name, _ := entry["name"].(string)
		err := l.loadEntry(ctx, entry)
		switch {
		case err == nil:
			res.Created++
		case validation.IsConflict(err):
			res.Existing++
		default:
			entryErr := &EntryError{Index: i, Name: name, Err: err}
			res.Failed = append(res.Failed, entryErr)
			l.log.Warn("catalog entry rejected", zap.Int("index", i), zap.String("name", name), zap.Error(err))
		}
	}

	l.log.Info("catalog loaded",
		zap.Int("created", res.Created),
		zap.Int("existing", res.Existing),
		zap.Int("failed", len(res.Failed)))
	return res, nil
}

func (l *Loader) loadEntry(ctx context.Context, entry map[string]any) error {
	cardType, _ := entry["card_type"].(string)
	fields := make(map[string]any, len(entry))
	for k, v := range entry {
		if k != "card_type" {
			fields[k] = v
		}
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	switch models.CardType(cardType) {
	case models.CardTypePokemon:
		var req models.PokemonCardRequest
		if err := validation.Bind(bytes.NewReader(body), &req); err != nil {
			return err
		}
		_, err = l.cards.CreatePokemon(ctx, &req)
	case models.CardTypeTrainer:
		var req models.TrainerCardRequest
		if err := validation.Bind(bytes.NewReader(body), &req); err != nil {
			return err
		}
		_, err = l.cards.CreateTrainer(ctx, &req)
	default:
		return &validation.SchemaError{Fields: []validation.FieldError{
			{Field: "card_type", Reason: fmt.Sprintf("must be one of: pokemon, trainer, got %q", cardType)},
		}}
	}
	return err
}
