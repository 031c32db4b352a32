// Package service provides the family workflows that sit on top of the
// reconciliation cache: importing GEDCOM files, editing relationships,
// choosing a tree's home person, and posting with person tags.
package service

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/gedcom"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/metrics"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/reconcile"
)

// DefaultMaxGenerations bounds an import when the caller does not.
const DefaultMaxGenerations = 4

// DefaultGenerations asks for the configured generation bound. Zero is a
// real bound: the start person and spouses only.
const DefaultGenerations = -1

// FamilyService edits one owner's family graph through a reconciliation cache.
type FamilyService struct {
	cache          *reconcile.Cache
	log            *logrus.Logger
	maxGenerations int
	now            func() time.Time
}

// NewFamilyService creates a FamilyService. A negative maxGenerations selects
// DefaultMaxGenerations.
func NewFamilyService(cache *reconcile.Cache, log *logrus.Logger, maxGenerations int) *FamilyService {
	if maxGenerations < 0 {
		maxGenerations = DefaultMaxGenerations
	}
	return &FamilyService{cache: cache, log: log, maxGenerations: maxGenerations, now: time.Now}
}

// ImportReport summarizes one GEDCOM import.
type ImportReport struct {
	Tree    models.Tree
	People  int
	Added   int
	Updated int
	Skipped int
}

// ImportGEDCOM parses text, merges the resulting persons into the cache by id
// and creates a fresh tree over them. Persons already present (from an
// earlier import of the same file) are merged rather than duplicated. The
// returned report reflects local state; the store catches up in the
// background.
func (s *FamilyService) ImportGEDCOM(text string, opts ...gedcom.Option) (*ImportReport, error) {
	start := time.Now()
	opts = append([]gedcom.Option{gedcom.WithClock(s.now)}, opts...)

	res, err := gedcom.Import(text, s.cache.OwnerID(), s.maxGenerations, opts...)
	if err != nil {
		return nil, err
	}
	if _, exists := s.cache.Trees.Get(res.Tree.ID); exists {
		return nil, fmt.Errorf("creating tree: %w: tree %s", reconcile.ErrDuplicateID, res.Tree.ID)
	}

	_, diff := s.cache.People.Mutate(func(people []models.Person) []models.Person {
		idx := make(map[string]int, len(people))
		for i, p := range people {
			idx[p.ID] = i
		}
		for _, imported := range res.People {
			if i, ok := idx[imported.ID]; ok {
				people[i] = models.MergeImported(people[i], imported)
				continue
			}
			idx[imported.ID] = len(people)
			people = append(people, imported)
		}
		return people
	})

	tree, err := s.cache.Trees.CreateOptimistic(res.Tree)
	if err != nil {
		return nil, fmt.Errorf("creating tree: %w", err)
	}

	metrics.ImportDuration.Observe(time.Since(start).Seconds())
	metrics.ImportedPeople.Add(float64(len(res.People)))

	s.log.WithFields(logrus.Fields{
		"owner_id": s.cache.OwnerID(),
		"tree_id":  tree.ID,
		"people":   len(res.People),
		"added":    len(diff.Added),
		"updated":  len(diff.Changed),
		"skipped":  res.Skipped,
	}).Info("gedcom imported")

	return &ImportReport{
		Tree:    tree,
		People:  len(res.People),
		Added:   len(diff.Added),
		Updated: len(diff.Changed),
		Skipped: res.Skipped,
	}, nil
}

// SetHomePerson marks personID as the home person of treeID. The person must
// be a member of the tree.
func (s *FamilyService) SetHomePerson(treeID, personID string) (models.Tree, error) {
	var (
		result models.Tree
		opErr  = fmt.Errorf("%w: %s", models.ErrTreeNotFound, treeID)
	)
	s.cache.Trees.Mutate(func(trees []models.Tree) []models.Tree {
		for i := range trees {
			if trees[i].ID != treeID {
				continue
			}
			opErr = trees[i].SetHomePerson(personID)
			result = trees[i].Clone()
		}
		return trees
	})
	if opErr != nil {
		return models.Tree{}, opErr
	}
	return result, nil
}

// AddPerson creates a person optimistically. An empty id is generated.
func (s *FamilyService) AddPerson(p models.Person) (models.Person, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.OwnerID = s.cache.OwnerID()
	p.ParentIDs, p.ChildIDs, p.SpouseIDs = nil, nil, nil
	if err := p.Validate(); err != nil {
		return models.Person{}, err
	}
	return s.cache.People.CreateOptimistic(p)
}

// UpdatePerson applies patch to one person.
func (s *FamilyService) UpdatePerson(id string, patch models.PersonPatch) error {
	if patch.ParentIDs != nil || patch.ChildIDs != nil || patch.SpouseIDs != nil {
		return errors.New("relationships change through the link operations")
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	return s.mutatePeople(func(idx map[string]*models.Person) error {
		p, ok := idx[id]
		if !ok {
			return fmt.Errorf("%w: %s", models.ErrPersonNotFound, id)
		}
		patch.Apply(p)
		return p.Validate()
	})
}

// LinkParentChild records a parent/child relationship on both persons.
func (s *FamilyService) LinkParentChild(parentID, childID string) error {
	return s.mutatePeople(func(idx map[string]*models.Person) error {
		return models.LinkParentChild(idx, parentID, childID)
	})
}

// LinkSpouses records a spouse relationship on both persons.
func (s *FamilyService) LinkSpouses(a, b string) error {
	return s.mutatePeople(func(idx map[string]*models.Person) error {
		return models.LinkSpouses(idx, a, b)
	})
}

// AddMemory appends a memory to a person.
func (s *FamilyService) AddMemory(personID, text string) (models.Memory, error) {
	m := models.Memory{ID: uuid.New().String(), Text: text, CreatedAt: s.now().UTC()}
	err := s.mutatePeople(func(idx map[string]*models.Person) error {
		p, ok := idx[personID]
		if !ok {
			return fmt.Errorf("%w: %s", models.ErrPersonNotFound, personID)
		}
		p.Memories = append(p.Memories, m)
		return p.Validate()
	})
	return m, err
}

// DeletePerson removes a person everywhere: from the other persons'
// relationship sets, from every tree, and from the store.
func (s *FamilyService) DeletePerson(id string) error {
	if _, ok := s.cache.People.Get(id); !ok {
		return fmt.Errorf("%w: %s", models.ErrPersonNotFound, id)
	}

	var touched []string
	s.cache.People.Mutate(func(people []models.Person) []models.Person {
		touched = models.UnlinkAll(models.Index(people), id)
		return people
	})
	if err := s.cache.People.Delete(id); err != nil {
		return err
	}

	trees := 0
	s.cache.Trees.Mutate(func(ts []models.Tree) []models.Tree {
		for i := range ts {
			if ts[i].RemoveMember(id) {
				trees++
			}
		}
		return ts
	})

	s.log.WithFields(logrus.Fields{
		"person_id": id,
		"relatives": len(touched),
		"trees":     trees,
	}).Debug("person deleted")
	return nil
}

// AddTreeMember adds personID to a tree.
func (s *FamilyService) AddTreeMember(treeID, personID string) error {
	if _, ok := s.cache.People.Get(personID); !ok {
		return fmt.Errorf("%w: %s", models.ErrPersonNotFound, personID)
	}
	found := false
	s.cache.Trees.Mutate(func(trees []models.Tree) []models.Tree {
		for i := range trees {
			if trees[i].ID == treeID {
				trees[i].AddMember(personID)
				found = true
			}
		}
		return trees
	})
	if !found {
		return fmt.Errorf("%w: %s", models.ErrTreeNotFound, treeID)
	}
	return nil
}

// DeleteTree removes a tree. Its persons stay.
func (s *FamilyService) DeleteTree(id string) error {
	if _, ok := s.cache.Trees.Get(id); !ok {
		return fmt.Errorf("%w: %s", models.ErrTreeNotFound, id)
	}
	return s.cache.Trees.Delete(id)
}

// CreatePost creates a post optimistically and then writes its person tags.
// Tag failures surface on the cache's error channel as
// *reconcile.PartialTagError; the post is kept either way.
func (s *FamilyService) CreatePost(post models.Post) (models.Post, error) {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	post.OwnerID = s.cache.OwnerID()
	post.TaggedPersonIDs = models.NormalizeIDs(post.TaggedPersonIDs)
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.now().UTC()
	}
	if err := post.Validate(); err != nil {
		return models.Post{}, err
	}

	for _, pid := range post.TaggedPersonIDs {
		if _, ok := s.cache.People.Get(pid); !ok {
			return models.Post{}, fmt.Errorf("tagging %s: %w", pid, models.ErrPersonNotFound)
		}
	}

	created, err := s.cache.Posts.CreateOptimistic(post)
	if err != nil {
		return models.Post{}, err
	}

	if err := s.cache.TagPost(created.ID, created.TaggedPersonIDs); err != nil {
		return created, err
	}
	for _, m := range created.Attachments {
		if err := s.cache.TagMedia(m.ID, created.TaggedPersonIDs); err != nil {
			return created, err
		}
	}
	return created, nil
}

// DeletePost removes a post; its tags go with it in the store.
func (s *FamilyService) DeletePost(id string) error {
	if _, ok := s.cache.Posts.Get(id); !ok {
		return fmt.Errorf("%w: %s", models.ErrPostNotFound, id)
	}
	return s.cache.Posts.Delete(id)
}

// PostsTagging returns the posts that tag personID, newest first.
func (s *FamilyService) PostsTagging(personID string) []models.Post {
	var out []models.Post
	for _, p := range s.cache.Posts.Items() {
		if slices.Contains(p.TaggedPersonIDs, personID) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// mutatePeople runs fn against an index of the working set. When fn fails
// the working set is left untouched and nothing is pushed.
func (s *FamilyService) mutatePeople(fn func(idx map[string]*models.Person) error) error {
	var opErr error
	s.cache.People.Mutate(func(people []models.Person) []models.Person {
		working := slices.Clone(people)
		for i := range working {
			working[i] = working[i].Clone()
		}
		if opErr = fn(models.Index(working)); opErr != nil {
			return people
		}
		return working
	})
	return opErr
}
