package gedcom

import (
	"slices"
	"strconv"
	"strings"
)

// Event is a dated fact inside an individual or family record.
type Event struct {
	Tag   string
	Value string
	Date  string
	Place string
}

// Individual is an INDI record.
type Individual struct {
	XRef    string
	Line    int
	Name    string
	Given   string
	Surname string
	Sex     string
	Events  []Event
	Notes   []string
	Sources []string
	FamC    []string
	FamS    []string
}

// Family is a FAM record.
type Family struct {
	XRef     string
	Line     int
	Husband  string
	Wife     string
	Children []string
	Events   []Event
}

// Header holds the few HEAD fields the importer uses.
type Header struct {
	File    string
	Source  string
	Version string
}

// Graph is the record graph of one GEDCOM text.
type Graph struct {
	Header Header

	individuals map[string]*Individual
	order       []string
	families    map[string]*Family
	sources     map[string]*textRecord
	notes       map[string]*textRecord

	// individual -> family ids, merged from both sides of each link
	asChild  map[string][]string
	asSpouse map[string][]string
	// family -> member ids, merged from both sides of each link
	famChildren map[string][]string
	famSpouses  map[string][]string

	skipped int
}

type textRecord struct {
	Text string
}

// eventTags are the individual and family facts turned into timeline entries.
var eventTags = map[string]string{
	"BIRT": "birth",
	"CHR":  "christening",
	"BAPM": "baptism",
	"DEAT": "death",
	"BURI": "burial",
	"CREM": "cremation",
	"RESI": "residence",
	"OCCU": "occupation",
	"EDUC": "education",
	"GRAD": "graduation",
	"EMIG": "emigration",
	"IMMI": "immigration",
	"NATU": "naturalization",
	"MILI": "military",
	"RETI": "retirement",
	"EVEN": "event",
	"MARR": "marriage",
	"DIV":  "divorce",
	"ENGA": "engagement",
}

// EventType returns the readable name of an event tag.
func EventType(tag string) string {
	if t, ok := eventTags[tag]; ok {
		return t
	}
	return strings.ToLower(tag)
}

type builder struct {
	g *Graph

	indi   *Individual
	fam    *Family
	record *textRecord
	head   bool

	event     *Event
	text      *string
	textLevel int
}

// Build reads every line of t and assembles the record graph. It never fails:
// unknown records are ignored and references to missing records are kept as
// dangling ids that resolve to nothing.
func Build(t *Tokenizer) *Graph {
	b := &builder{g: &Graph{
		individuals: make(map[string]*Individual),
		families:    make(map[string]*Family),
		sources:     make(map[string]*textRecord),
		notes:       make(map[string]*textRecord),
		asChild:     make(map[string][]string),
		asSpouse:    make(map[string][]string),
		famChildren: make(map[string][]string),
		famSpouses:  make(map[string][]string),
	}}

	for line := range t.Lines() {
		b.add(line)
	}
	b.g.skipped = t.Skipped()
	b.link()
	return b.g
}

func (b *builder) add(l Line) {
	if l.Tag == "CONT" || l.Tag == "CONC" {
		b.continueText(l)
		return
	}
	b.text = nil

	if l.Level == 0 {
		b.startRecord(l)
		return
	}

	switch {
	case b.indi != nil:
		b.addIndividual(l)
	case b.fam != nil:
		b.addFamily(l)
	case b.record != nil:
		// SOUR records keep their title; NOTE records already hold their text.
		if l.Level == 1 && l.Tag == "TITL" {
			b.record.Text = l.Value
			b.track(&b.record.Text, l.Level)
		}
	case b.head:
		b.addHeader(l)
	}
}

func (b *builder) continueText(l Line) {
	if b.text == nil || l.Level != b.textLevel+1 {
		return
	}
	if l.Tag == "CONT" {
		*b.text += "\n" + l.Value
	} else {
		*b.text += l.Value
	}
}

func (b *builder) track(s *string, level int) {
	b.text = s
	b.textLevel = level
}

func (b *builder) startRecord(l Line) {
	b.indi, b.fam, b.record, b.head, b.event = nil, nil, nil, false, nil

	switch l.Tag {
	case "HEAD":
		b.head = true
	case "INDI":
		xref := l.XRef
		if xref == "" {
			xref = syntheticXRef(l)
		}
		if _, dup := b.g.individuals[xref]; dup {
			return
		}
		b.indi = &Individual{XRef: xref, Line: l.Number}
		b.g.individuals[xref] = b.indi
		b.g.order = append(b.g.order, xref)
	case "FAM":
		if l.XRef == "" {
			return
		}
		b.fam = &Family{XRef: l.XRef, Line: l.Number}
		b.g.families[l.XRef] = b.fam
	case "SOUR":
		if l.XRef == "" {
			return
		}
		b.record = &textRecord{}
		b.g.sources[l.XRef] = b.record
	case "NOTE":
		if l.XRef == "" {
			return
		}
		b.record = &textRecord{Text: l.Value}
		b.g.notes[l.XRef] = b.record
		b.track(&b.record.Text, 0)
	}
}

func (b *builder) addHeader(l Line) {
	if l.Level != 1 {
		if l.Level == 2 && l.Tag == "VERS" && b.event != nil && b.event.Tag == "GEDC" {
			b.g.Header.Version = l.Value
		}
		return
	}
	b.event = &Event{Tag: l.Tag}
	switch l.Tag {
	case "FILE":
		b.g.Header.File = l.Value
	case "SOUR":
		b.g.Header.Source = l.Value
	}
}

func (b *builder) addIndividual(l Line) {
	ind := b.indi

	if l.Level == 1 {
		b.event = nil
		switch l.Tag {
		case "NAME":
			if ind.Name == "" {
				ind.Name, ind.Given, ind.Surname = splitName(l.Value)
			}
		case "SEX":
			ind.Sex = strings.ToUpper(strings.TrimSpace(l.Value))
		case "FAMC":
			if id := pointer(l.Value); id != "" {
				ind.FamC = appendUnique(ind.FamC, id)
			}
		case "FAMS":
			if id := pointer(l.Value); id != "" {
				ind.FamS = appendUnique(ind.FamS, id)
			}
		case "NOTE":
			ind.Notes = append(ind.Notes, l.Value)
			b.track(&ind.Notes[len(ind.Notes)-1], l.Level)
		case "SOUR":
			ind.Sources = appendUnique(ind.Sources, l.Value)
		default:
			if _, ok := eventTags[l.Tag]; ok {
				ind.Events = append(ind.Events, Event{Tag: l.Tag, Value: l.Value})
				b.event = &ind.Events[len(ind.Events)-1]
			}
		}
		return
	}

	if l.Level == 2 {
		switch {
		case b.event != nil:
			b.addEventDetail(b.event, l)
			if l.Tag == "SOUR" {
				ind.Sources = appendUnique(ind.Sources, l.Value)
			}
		case l.Tag == "GIVN" && ind.Given == "":
			ind.Given = l.Value
		case l.Tag == "SURN" && ind.Surname == "":
			ind.Surname = l.Value
		}
	}
}

func (b *builder) addFamily(l Line) {
	fam := b.fam

	if l.Level == 1 {
		b.event = nil
		switch l.Tag {
		case "HUSB":
			fam.Husband = pointer(l.Value)
		case "WIFE":
			fam.Wife = pointer(l.Value)
		case "CHIL":
			if id := pointer(l.Value); id != "" {
				fam.Children = appendUnique(fam.Children, id)
			}
		default:
			if _, ok := eventTags[l.Tag]; ok {
				fam.Events = append(fam.Events, Event{Tag: l.Tag, Value: l.Value})
				b.event = &fam.Events[len(fam.Events)-1]
			}
		}
		return
	}

	if l.Level == 2 && b.event != nil {
		b.addEventDetail(b.event, l)
	}
}

func (b *builder) addEventDetail(ev *Event, l Line) {
	switch l.Tag {
	case "DATE":
		ev.Date = strings.TrimSpace(l.Value)
	case "PLAC":
		ev.Place = strings.TrimSpace(l.Value)
	case "TYPE":
		if ev.Value == "" {
			ev.Value = l.Value
		}
	}
}

// link merges the pointers declared on individuals with those declared on
// families so a link stated on only one side still connects both.
func (b *builder) link() {
	g := b.g

	addChild := func(indi, fam string) {
		g.asChild[indi] = appendUnique(g.asChild[indi], fam)
		g.famChildren[fam] = appendUnique(g.famChildren[fam], indi)
	}
	addSpouse := func(indi, fam string) {
		g.asSpouse[indi] = appendUnique(g.asSpouse[indi], fam)
		g.famSpouses[fam] = appendUnique(g.famSpouses[fam], indi)
	}

	for _, id := range g.order {
		ind := g.individuals[id]
		for _, f := range ind.FamC {
			addChild(id, f)
		}
		for _, f := range ind.FamS {
			addSpouse(id, f)
		}
	}

	famIDs := make([]string, 0, len(g.families))
	for id := range g.families {
		famIDs = append(famIDs, id)
	}
	slices.SortFunc(famIDs, func(a, c string) int { return g.families[a].Line - g.families[c].Line })

	for _, fid := range famIDs {
		fam := g.families[fid]
		if fam.Husband != "" {
			addSpouse(fam.Husband, fid)
		}
		if fam.Wife != "" {
			addSpouse(fam.Wife, fid)
		}
		for _, c := range fam.Children {
			addChild(c, fid)
		}
	}
}

// Individuals returns the individual records in file order.
func (g *Graph) Individuals() []*Individual {
	out := make([]*Individual, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.individuals[id])
	}
	return out
}

// Individual returns the record for xref.
func (g *Graph) Individual(xref string) (*Individual, bool) {
	ind, ok := g.individuals[xref]
	return ind, ok
}

// Family returns the record for xref.
func (g *Graph) Family(xref string) (*Family, bool) {
	fam, ok := g.families[xref]
	return fam, ok
}

// Skipped returns the number of malformed lines dropped while tokenizing.
func (g *Graph) Skipped() int { return g.skipped }

// Parents returns the existing individuals that are parents of xref.
func (g *Graph) Parents(xref string) []string {
	return g.resolve(g.asChild[xref], g.famSpouses, xref)
}

// Children returns the existing individuals that are children of xref.
func (g *Graph) Children(xref string) []string {
	return g.resolve(g.asSpouse[xref], g.famChildren, xref)
}

// Spouses returns the existing individuals that share a family with xref as
// partners.
func (g *Graph) Spouses(xref string) []string {
	return g.resolve(g.asSpouse[xref], g.famSpouses, xref)
}

// SpouseFamilies returns the family ids in which xref is a partner.
func (g *Graph) SpouseFamilies(xref string) []string {
	return slices.Clone(g.asSpouse[xref])
}

// FamilyPartners returns the existing partners of a family.
func (g *Graph) FamilyPartners(fam string) []string {
	return g.resolve([]string{fam}, g.famSpouses, "")
}

func (g *Graph) resolve(fams []string, members map[string][]string, exclude string) []string {
	var out []string
	for _, f := range fams {
		for _, id := range members[f] {
			if id == exclude {
				continue
			}
			if _, ok := g.individuals[id]; ok {
				out = appendUnique(out, id)
			}
		}
	}
	return out
}

// SourceTitle resolves a citation value. Pointers resolve to the source
// record's title, or to the bare id when the record has none; inline
// citations are returned as written.
func (g *Graph) SourceTitle(v string) string {
	id := pointer(v)
	if id == "" {
		return strings.TrimSpace(v)
	}
	if rec, ok := g.sources[id]; ok && rec.Text != "" {
		return rec.Text
	}
	return id
}

// NoteText resolves a note value, following "@N1@" pointers.
func (g *Graph) NoteText(v string) string {
	id := pointer(v)
	if id == "" {
		return v
	}
	if rec, ok := g.notes[id]; ok {
		return rec.Text
	}
	return ""
}

func splitName(v string) (full, given, surname string) {
	if i := strings.Index(v, "/"); i >= 0 {
		given = strings.TrimSpace(v[:i])
		rest := v[i+1:]
		if j := strings.Index(rest, "/"); j >= 0 {
			surname = strings.TrimSpace(rest[:j])
		} else {
			surname = strings.TrimSpace(rest)
		}
	} else {
		given = strings.TrimSpace(v)
	}
	full = strings.Join(strings.Fields(strings.ReplaceAll(v, "/", " ")), " ")
	return full, given, surname
}

func syntheticXRef(l Line) string {
	return "L" + strconv.Itoa(l.Number)
}

func appendUnique(list []string, v string) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
