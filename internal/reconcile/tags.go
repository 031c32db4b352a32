package reconcile

import (
	"context"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
)

// Join relation names used in PartialTagError.
const (
	RelationPostTags  = "post_tags"
	RelationMediaTags = "media_tags"
)

// TagPost writes person tags for a post after any pending write of the post
// itself. Failures are reported as *PartialTagError and never undo the post.
func (c *Cache) TagPost(postID string, personIDs []string) error {
	return c.tag(c.store.PostTags(), RelationPostTags, key(KindPost, postID), postID, personIDs)
}

// UntagPost removes one person tag from a post.
func (c *Cache) UntagPost(postID, personID string) error {
	return c.untag(c.store.PostTags(), RelationPostTags, key(KindPost, postID), postID, personID)
}

// TagMedia writes person tags for a media item.
func (c *Cache) TagMedia(mediaID string, personIDs []string) error {
	return c.tag(c.store.MediaTags(), RelationMediaTags, "media:"+mediaID, mediaID, personIDs)
}

// UntagMedia removes one person tag from a media item.
func (c *Cache) UntagMedia(mediaID, personID string) error {
	return c.untag(c.store.MediaTags(), RelationMediaTags, "media:"+mediaID, mediaID, personID)
}

func (c *Cache) tag(rel domain.TagRelation, relation, k, entityID string, personIDs []string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if len(personIDs) == 0 {
		return nil
	}

	c.disp.submit([]string{k}, func(ctx context.Context) {
		err := rel.Tag(ctx, c.ownerID, entityID, personIDs)
		countPush(relation, OpTag, err)
		if err != nil {
			c.report(&PartialTagError{Relation: relation, EntityID: entityID, PersonIDs: personIDs, Err: err})
		}
	})
	return nil
}

func (c *Cache) untag(rel domain.TagRelation, relation, k, entityID, personID string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.disp.submit([]string{k}, func(ctx context.Context) {
		err := rel.Untag(ctx, c.ownerID, entityID, personID)
		countPush(relation, OpUntag, err)
		if err != nil {
			c.report(&PartialTagError{Relation: relation, EntityID: entityID, PersonIDs: []string{personID}, Err: err})
		}
	})
	return nil
}
