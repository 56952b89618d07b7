package tagsync

import "sort"

// ComputeDelta partitions the reference user ids against the tag's current
// members. Users in the reference set but not in the tag go to ToAdd, tag
// members absent from the reference set go to ToRemove, and the overlap
// goes to Unchanged. Duplicate inputs are collapsed and each output set is
// sorted ascending.
func ComputeDelta(reference []string, current []TagMember) Delta {
	want := make(map[string]struct{}, len(reference))
	for _, id := range reference {
		if id != "" {
			want[id] = struct{}{}
		}
	}
	have := make(map[string]struct{}, len(current))
	for _, m := range current {
		if m.UserID != "" {
			have[m.UserID] = struct{}{}
		}
	}

	var d Delta
	for id := range want {
		if _, ok := have[id]; ok {
			d.Unchanged = append(d.Unchanged, id)
		} else {
			d.ToAdd = append(d.ToAdd, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			d.ToRemove = append(d.ToRemove, id)
		}
	}

	sort.Strings(d.ToAdd)
	sort.Strings(d.ToRemove)
	sort.Strings(d.Unchanged)
	return d
}
