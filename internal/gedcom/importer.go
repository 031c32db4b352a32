package gedcom

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// DefaultTreeName names an imported tree when neither the caller nor the
// file header supplies one.
const DefaultTreeName = "Imported tree"

// Sentinel import errors, always wrapped in a *ParseError.
var (
	ErrNoIndividuals      = errors.New("no individual records")
	ErrInvalidGenerations = errors.New("max generations must not be negative")
	ErrAnchorNotFound     = errors.New("anchor individual not found")
)

// ParseError reports input that cannot produce a tree. Import returns no
// partial result alongside it.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("gedcom: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("gedcom: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// personNamespace seeds the deterministic person ids.
var personNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://eternal.family/gedcom/person"))

// PersonID returns the stable id of the individual xref imported by owner.
// Re-importing the same file for the same owner yields the same ids.
func PersonID(ownerID, xref string) string {
	return uuid.NewSHA1(personNamespace, []byte(ownerID+"/"+xref)).String()
}

func childID(parent, kind string, n int) string {
	return uuid.NewSHA1(personNamespace, fmt.Appendf(nil, "%s/%s/%d", parent, kind, n)).String()
}

// Result is the outcome of one import.
type Result struct {
	People  []models.Person
	Tree    models.Tree
	Skipped int
}

type options struct {
	anchor   string
	allRoots bool
	treeName string
	treeID   string
	now      func() time.Time
}

// Option configures Import.
type Option func(*options)

// WithAnchor starts the walk at the individual with the given xref instead of
// the first individual in the file. Both "I12" and "@I12@" are accepted.
func WithAnchor(xref string) Option {
	if p := pointer(xref); p != "" {
		xref = p
	}
	return func(o *options) { o.anchor = xref }
}

// WithAllRoots keeps walking from every individual not reached by an earlier
// walk, in file order, so disconnected branches are imported too.
func WithAllRoots() Option {
	return func(o *options) { o.allRoots = true }
}

// WithTreeName names the created tree.
func WithTreeName(name string) Option {
	return func(o *options) { o.treeName = name }
}

// WithTreeID fixes the id of the created tree.
func WithTreeID(id string) Option {
	return func(o *options) { o.treeID = id }
}

// WithClock sets the timestamp source for imported memories.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Import parses text and returns the persons reachable from the starting
// individual within maxGenerations parent/child steps, plus a fresh tree
// listing them. Spouse links never count as a generation.
func Import(text, ownerID string, maxGenerations int, opts ...Option) (*Result, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if maxGenerations < 0 {
		return nil, &ParseError{Err: ErrInvalidGenerations}
	}

	g := Build(NewTokenizer(text))
	if len(g.order) == 0 {
		return nil, &ParseError{Err: ErrNoIndividuals}
	}

	start := g.order[0]
	if o.anchor != "" {
		if _, ok := g.individuals[o.anchor]; !ok {
			return nil, &ParseError{Err: fmt.Errorf("%w: %s", ErrAnchorNotFound, o.anchor)}
		}
		start = o.anchor
	}

	visited := make(map[string]bool)
	order := walk(g, start, maxGenerations, visited, nil)
	if o.allRoots {
		for _, id := range g.order {
			if !visited[id] {
				order = walk(g, id, maxGenerations, visited, order)
			}
		}
	}

	created := o.now().UTC()
	people := make([]models.Person, 0, len(order))
	for _, xref := range order {
		people = append(people, toPerson(g, xref, ownerID, visited, created))
	}

	return &Result{
		People:  people,
		Tree:    newTree(g, o, ownerID, people),
		Skipped: g.Skipped(),
	}, nil
}

// walk is a level-synchronous breadth-first search. Spouses join the current
// generation's queue; parents and children are deferred to the next one, so
// every individual is reached with its smallest generation count.
func walk(g *Graph, start string, maxGenerations int, visited map[string]bool, order []string) []string {
	current := []string{start}
	for gen := 0; len(current) > 0 && gen <= maxGenerations; gen++ {
		var next []string
		for i := 0; i < len(current); i++ {
			id := current[i]
			if visited[id] {
				continue
			}
			visited[id] = true
			order = append(order, id)

			for _, s := range g.Spouses(id) {
				if !visited[s] {
					current = append(current, s)
				}
			}
			for _, p := range g.Parents(id) {
				if !visited[p] {
					next = append(next, p)
				}
			}
			for _, c := range g.Children(id) {
				if !visited[c] {
					next = append(next, c)
				}
			}
		}
		current = next
	}
	return order
}

func toPerson(g *Graph, xref, ownerID string, visited map[string]bool, created time.Time) models.Person {
	ind := g.individuals[xref]
	id := PersonID(ownerID, xref)

	p := models.Person{
		ID:      id,
		OwnerID: ownerID,
		Name:    ind.Name,
		Gender:  gender(ind.Sex),
	}
	if p.Name == "" {
		p.Name = "Unknown"
	}

	for _, ev := range ind.Events {
		switch ev.Tag {
		case "BIRT":
			if p.BirthYear == "" {
				p.BirthYear = yearOf(ev.Date)
			}
		case "DEAT":
			if p.DeathYear == "" {
				p.DeathYear = yearOf(ev.Date)
			}
		}
		p.Timeline = append(p.Timeline, models.TimelineEvent{
			ID:    childID(id, "event", len(p.Timeline)),
			Type:  EventType(ev.Tag),
			Date:  ev.Date,
			Place: ev.Place,
		})
	}

	for _, fid := range g.SpouseFamilies(xref) {
		fam, ok := g.families[fid]
		if !ok {
			continue
		}
		spouseName := ""
		for _, s := range g.FamilyPartners(fid) {
			if s != xref {
				spouseName = g.individuals[s].Name
				break
			}
		}
		for _, ev := range fam.Events {
			p.Timeline = append(p.Timeline, models.TimelineEvent{
				ID:         childID(id, "event", len(p.Timeline)),
				Type:       EventType(ev.Tag),
				Date:       ev.Date,
				Place:      ev.Place,
				SpouseName: spouseName,
			})
		}
	}

	for _, n := range ind.Notes {
		text := g.NoteText(n)
		if text == "" {
			continue
		}
		p.Memories = append(p.Memories, models.Memory{
			ID:        childID(id, "note", len(p.Memories)),
			Text:      text,
			CreatedAt: created,
		})
	}

	var citations []string
	for _, s := range ind.Sources {
		if title := g.SourceTitle(s); title != "" {
			citations = append(citations, title)
		}
	}
	p.SourceCitations = models.NormalizeIDs(citations)

	p.ParentIDs = visitedIDs(g.Parents(xref), ownerID, visited)
	p.ChildIDs = visitedIDs(g.Children(xref), ownerID, visited)
	p.SpouseIDs = visitedIDs(g.Spouses(xref), ownerID, visited)

	return p
}

func visitedIDs(xrefs []string, ownerID string, visited map[string]bool) []string {
	var ids []string
	for _, x := range xrefs {
		if visited[x] {
			ids = append(ids, PersonID(ownerID, x))
		}
	}
	return models.NormalizeIDs(ids)
}

func newTree(g *Graph, o options, ownerID string, people []models.Person) models.Tree {
	name := o.treeName
	if name == "" {
		name = g.Header.File
	}
	if name == "" {
		name = DefaultTreeName
	}

	id := o.treeID
	if id == "" {
		id = uuid.New().String()
	}

	members := make([]string, 0, len(people))
	for _, p := range people {
		members = append(members, p.ID)
	}

	return models.Tree{ID: id, OwnerID: ownerID, Name: name, MemberIDs: members}
}

func gender(sex string) models.Gender {
	switch sex {
	case "M":
		return models.GenderMale
	case "F":
		return models.GenderFemale
	}
	return models.GenderUnknown
}

var yearPattern = regexp.MustCompile(`\b\d{3,4}\b`)

// yearOf extracts the first year-like number of a GEDCOM date, so
// "ABT 12 MAR 1850" and "BET 1850 AND 1860" both yield "1850". Dates without
// one are returned unchanged.
func yearOf(date string) string {
	if y := yearPattern.FindString(date); y != "" {
		return y
	}
	return date
}
