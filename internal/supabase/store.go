// Package supabase implements the remote store on a Supabase backend through
// its PostgREST API. Every query is filtered by owner_id; row level security
// on the Supabase side is expected to enforce the same scoping.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// PostgreSQL error codes surfaced by PostgREST.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// serverColumns are assigned by the database and never sent in bulk writes.
var serverColumns = []string{"created_at", "updated_at"}

// Store is a domain.RemoteStore backed by Supabase tables.
type Store struct {
	client *supabase.Client
	log    *logrus.Logger

	people    *table[models.Person]
	trees     *table[models.Tree]
	posts     *table[models.Post]
	postTags  *TagTable
	mediaTags *TagTable
}

var _ domain.RemoteStore = (*Store)(nil)

// New connects to the Supabase project at url with the given service key.
func New(url, key string, log *logrus.Logger) (*Store, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return NewFromClient(client, log), nil
}

// NewFromClient wraps an existing Supabase client.
func NewFromClient(client *supabase.Client, log *logrus.Logger) *Store {
	s := &Store{client: client, log: log}
	s.people = &table[models.Person]{
		s: s, name: "people", notFound: models.ErrPersonNotFound,
		order:      []order{{"name", true}, {"id", true}},
		listFields: []string{"timeline", "memories", "source_citations", "parent_ids", "child_ids", "spouse_ids"},
		touch:      true,
		decode:     models.DecodeRows[models.Person, *models.Person],
		checkPatch: func(f map[string]any) error {
			_, err := models.DecodePatch[models.PersonPatch](f)
			return err
		},
		setOwner: func(p *models.Person, owner string) { p.OwnerID = owner },
		id:       func(p models.Person) string { return p.ID },
	}
	s.trees = &table[models.Tree]{
		s: s, name: "trees", notFound: models.ErrTreeNotFound,
		order:      []order{{"created_at", false}, {"id", true}},
		listFields: []string{"member_ids"},
		decode:     models.DecodeRows[models.Tree, *models.Tree],
		checkPatch: func(f map[string]any) error {
			_, err := models.DecodePatch[models.TreePatch](f)
			return err
		},
		setOwner: func(t *models.Tree, owner string) { t.OwnerID = owner },
		id:       func(t models.Tree) string { return t.ID },
	}
	s.posts = &table[models.Post]{
		s: s, name: "posts", notFound: models.ErrPostNotFound,
		order:      []order{{"created_at", false}, {"id", true}},
		listFields: []string{"attachments", "tagged_person_ids"},
		decode:     models.DecodeRows[models.Post, *models.Post],
		checkPatch: func(f map[string]any) error {
			_, err := models.DecodePatch[models.PostPatch](f)
			return err
		},
		setOwner: func(p *models.Post, owner string) { p.OwnerID = owner },
		id:       func(p models.Post) string { return p.ID },
	}
	s.postTags = &TagTable{s: s, name: "post_tags", entityCol: "post_id"}
	s.mediaTags = &TagTable{s: s, name: "media_tags", entityCol: "media_id"}
	return s
}

// People implements domain.RemoteStore.
func (s *Store) People() domain.Collection[models.Person] { return s.people }

// Trees implements domain.RemoteStore.
func (s *Store) Trees() domain.Collection[models.Tree] { return s.trees }

// Posts implements domain.RemoteStore.
func (s *Store) Posts() domain.Collection[models.Post] { return s.posts }

// PostTags implements domain.RemoteStore.
func (s *Store) PostTags() domain.TagRelation { return s.postTags }

// MediaTags implements domain.RemoteStore.
func (s *Store) MediaTags() domain.TagRelation { return s.mediaTags }

// PostTagTable returns the post_tags table for direct reads.
func (s *Store) PostTagTable() *TagTable { return s.postTags }

func (s *Store) from(table string) *postgrest.QueryBuilder {
	return s.client.From(table)
}

// mapError translates PostgREST failures into model errors. notFound is used
// for foreign key violations.
func mapError(err error, notFound error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, pgUniqueViolation):
		return fmt.Errorf("%w: %s", models.ErrDuplicateKey, msg)
	case strings.Contains(msg, pgCheckViolation) && strings.Contains(msg, "trees_home_is_member"):
		return models.ErrHomeNotMember
	case strings.Contains(msg, pgForeignKeyViolation):
		return fmt.Errorf("%w: %s", notFound, msg)
	}
	return err
}

// toRow encodes item as a column map. List columns are always present so a
// multi-row upsert sends the same columns for every row.
func toRow(item any, listFields []string, dropServer bool) (map[string]any, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encoding row: %w", err)
	}
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("encoding row: %w", err)
	}
	for _, f := range listFields {
		if _, ok := row[f]; !ok {
			row[f] = []any{}
		}
	}
	for _, f := range serverColumns {
		if dropServer || f == "updated_at" {
			delete(row, f)
		}
	}
	return row, nil
}

// checkContext fails fast on a cancelled context; the PostgREST client does
// not take one.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("supabase: %w", err)
	}
	return nil
}
