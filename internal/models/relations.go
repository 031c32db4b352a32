package models

import (
	"fmt"
	"slices"
)

// NormalizeIDs sorts ids and drops duplicates and empty entries.
func NormalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	out = slices.DeleteFunc(out, func(s string) bool { return s == "" })
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func addID(ids []string, id string) []string {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(slices.Clone(ids), i, id)
}

func removeID(ids []string, id string) []string {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	out := slices.Delete(slices.Clone(ids), i, i+1)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Index returns pointers into people keyed by id. Mutating through the index
// mutates the slice elements.
func Index(people []Person) map[string]*Person {
	idx := make(map[string]*Person, len(people))
	for i := range people {
		idx[people[i].ID] = &people[i]
	}
	return idx
}

func lookupPair(idx map[string]*Person, a, b string) (*Person, *Person, error) {
	if a == b {
		return nil, nil, ErrSelfRelation
	}
	pa, ok := idx[a]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrPersonNotFound, a)
	}
	pb, ok := idx[b]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrPersonNotFound, b)
	}
	return pa, pb, nil
}

// LinkParentChild records parentID as a parent of childID on both persons.
func LinkParentChild(idx map[string]*Person, parentID, childID string) error {
	parent, child, err := lookupPair(idx, parentID, childID)
	if err != nil {
		return err
	}
	parent.ChildIDs = addID(parent.ChildIDs, childID)
	child.ParentIDs = addID(child.ParentIDs, parentID)
	return nil
}

// LinkSpouses records a and b as spouses of each other.
func LinkSpouses(idx map[string]*Person, a, b string) error {
	pa, pb, err := lookupPair(idx, a, b)
	if err != nil {
		return err
	}
	pa.SpouseIDs = addID(pa.SpouseIDs, b)
	pb.SpouseIDs = addID(pb.SpouseIDs, a)
	return nil
}

// UnlinkAll strips id from the relationship sets of every other person in the
// index. It returns the ids of the persons that changed.
func UnlinkAll(idx map[string]*Person, id string) []string {
	var touched []string
	for pid, p := range idx {
		if pid == id {
			continue
		}
		before := len(p.ParentIDs) + len(p.ChildIDs) + len(p.SpouseIDs)
		p.ParentIDs = removeID(p.ParentIDs, id)
		p.ChildIDs = removeID(p.ChildIDs, id)
		p.SpouseIDs = removeID(p.SpouseIDs, id)
		if len(p.ParentIDs)+len(p.ChildIDs)+len(p.SpouseIDs) != before {
			touched = append(touched, pid)
		}
	}
	slices.Sort(touched)
	return touched
}

// RemovePerson returns people without id, with id stripped from every
// remaining person's relationship sets.
func RemovePerson(people []Person, id string) []Person {
	out := make([]Person, 0, len(people))
	for _, p := range people {
		if p.ID != id {
			out = append(out, p)
		}
	}
	UnlinkAll(Index(out), id)
	return out
}

// CheckSymmetry reports every relationship link that lacks its mirror on the
// other person. Links to persons outside people are reported too.
func CheckSymmetry(people []Person) []string {
	idx := Index(people)
	var problems []string
	for _, p := range people {
		for _, c := range p.ChildIDs {
			if other, ok := idx[c]; !ok || !slices.Contains(other.ParentIDs, p.ID) {
				problems = append(problems, fmt.Sprintf("%s lists child %s without matching parent link", p.ID, c))
			}
		}
		for _, par := range p.ParentIDs {
			if other, ok := idx[par]; !ok || !slices.Contains(other.ChildIDs, p.ID) {
				problems = append(problems, fmt.Sprintf("%s lists parent %s without matching child link", p.ID, par))
			}
		}
		for _, s := range p.SpouseIDs {
			if other, ok := idx[s]; !ok || !slices.Contains(other.SpouseIDs, p.ID) {
				problems = append(problems, fmt.Sprintf("%s lists spouse %s without matching spouse link", p.ID, s))
			}
		}
	}
	return problems
}
