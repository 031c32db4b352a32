package store

import (
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/domain"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// Remote bundles the PostgreSQL stores as a domain.RemoteStore.
type Remote struct {
	people    *PersonStore
	trees     *TreeStore
	posts     *PostStore
	postTags  *TagStore
	mediaTags *TagStore
}

var _ domain.RemoteStore = (*Remote)(nil)

// NewRemote creates a Remote over base.
func NewRemote(base Base) *Remote {
	return &Remote{
		people:    NewPersonStore(base),
		trees:     NewTreeStore(base),
		posts:     NewPostStore(base),
		postTags:  NewPostTagStore(base),
		mediaTags: NewMediaTagStore(base),
	}
}

// People implements domain.RemoteStore.
func (r *Remote) People() domain.Collection[models.Person] { return r.people }

// Trees implements domain.RemoteStore.
func (r *Remote) Trees() domain.Collection[models.Tree] { return r.trees }

// Posts implements domain.RemoteStore.
func (r *Remote) Posts() domain.Collection[models.Post] { return r.posts }

// PostTags implements domain.RemoteStore.
func (r *Remote) PostTags() domain.TagRelation { return r.postTags }

// MediaTags implements domain.RemoteStore.
func (r *Remote) MediaTags() domain.TagRelation { return r.mediaTags }

// PostTagStore returns the post_tags store for direct reads.
func (r *Remote) PostTagStore() *TagStore { return r.postTags }

// MediaTagStore returns the media_tags store for direct reads.
func (r *Remote) MediaTagStore() *TagStore { return r.mediaTags }
