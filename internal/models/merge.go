package models

import "slices"

// MergeImported folds a freshly imported person into an existing one with the
// same id. Genealogical fields come from the import when it has them; fields
// only a user edits (portrait, summary, memorial flag) are kept. Relationship
// sets, citations and memories are unioned so no link or story is lost.
func MergeImported(existing, imported Person) Person {
	out := existing.Clone()

	if imported.Name != "" {
		out.Name = imported.Name
	}
	if imported.Gender != "" && imported.Gender != GenderUnknown {
		out.Gender = imported.Gender
	}
	if imported.BirthYear != "" {
		out.BirthYear = imported.BirthYear
	}
	if imported.DeathYear != "" {
		out.DeathYear = imported.DeathYear
	}

	out.Timeline = mergeTimeline(out.Timeline, imported.Timeline)
	out.Memories = mergeMemories(out.Memories, imported.Memories)
	out.SourceCitations = NormalizeIDs(append(slices.Clone(out.SourceCitations), imported.SourceCitations...))
	out.ParentIDs = NormalizeIDs(append(slices.Clone(out.ParentIDs), imported.ParentIDs...))
	out.ChildIDs = NormalizeIDs(append(slices.Clone(out.ChildIDs), imported.ChildIDs...))
	out.SpouseIDs = NormalizeIDs(append(slices.Clone(out.SpouseIDs), imported.SpouseIDs...))

	return out
}

func mergeTimeline(have, incoming []TimelineEvent) []TimelineEvent {
	out := slices.Clone(have)
	for _, ev := range incoming {
		if !slices.ContainsFunc(out, func(e TimelineEvent) bool { return e.ID == ev.ID }) {
			out = append(out, ev)
		}
	}
	return out
}

func mergeMemories(have, incoming []Memory) []Memory {
	out := slices.Clone(have)
	for _, m := range incoming {
		if !slices.ContainsFunc(out, func(e Memory) bool { return e.ID == m.ID || e.Text == m.Text }) {
			out = append(out, m)
		}
	}
	return out
}
