package tagsync

// Team is a parent entity that can own one managed tag. Teams are matched
// for syncing by a marker substring in their description.
type Team struct {
	ID          string
	Name        string
	Description string
}

// Tag is the managed collection scoped to a single team. Tags are looked up
// by exact display name; the id is only stable for the tag's lifetime.
type Tag struct {
	ID          string
	DisplayName string
}

// TagMember is one membership entry of a tag. EntryID is the membership's
// own identifier and is what removal operates on; UserID identifies the
// directory user behind the entry.
type TagMember struct {
	EntryID string
	UserID  string
}

// Delta partitions the reference set against the tag's current members.
// The three sets are disjoint; Unchanged is never acted upon. All slices
// are sorted ascending so a pass applies mutations in a stable order.
type Delta struct {
	ToAdd     []string
	ToRemove  []string
	Unchanged []string
}

func (d Delta) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}
