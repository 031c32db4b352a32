package client

import (
	"context"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// Remote adapts c to the remote store used by the reconciliation cache. The
// server scopes every call to the API key's owner, so the ownerID argument of
// each call is not sent.
func Remote(c *Client) domain.RemoteStore {
	return remote{c: c}
}

type remote struct {
	c *Client
}

func (r remote) People() domain.Collection[models.Person] { return collection[models.Person]{r.c.People} }
func (r remote) Trees() domain.Collection[models.Tree]     { return collection[models.Tree]{r.c.Trees} }
func (r remote) Posts() domain.Collection[models.Post]     { return collection[models.Post]{r.c.Posts} }
func (r remote) PostTags() domain.TagRelation              { return tagRelation{r.c.PostTags} }
func (r remote) MediaTags() domain.TagRelation             { return tagRelation{r.c.MediaTags} }

type collection[T any] struct {
	svc *CollectionService[T]
}

func (c collection[T]) Create(ctx context.Context, _ string, item T) (*T, error) {
	return c.svc.Create(ctx, item)
}

func (c collection[T]) BulkUpsert(ctx context.Context, _ string, items []T) ([]T, error) {
	return c.svc.BulkUpsert(ctx, items)
}

func (c collection[T]) List(ctx context.Context, _ string) ([]T, error) {
	return c.svc.List(ctx)
}

func (c collection[T]) Update(ctx context.Context, _, id string, fields map[string]any) error {
	return c.svc.Update(ctx, id, fields)
}

func (c collection[T]) Delete(ctx context.Context, _, id string) error {
	return c.svc.Delete(ctx, id)
}

type tagRelation struct {
	svc *TagService
}

func (t tagRelation) Tag(ctx context.Context, _, entityID string, personIDs []string) error {
	return t.svc.Tag(ctx, entityID, personIDs)
}

func (t tagRelation) Untag(ctx context.Context, _, entityID, personID string) error {
	return t.svc.Untag(ctx, entityID, personID)
}
