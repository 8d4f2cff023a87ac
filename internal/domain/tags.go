package domain

import "slices"

// FolderTags is the ordered set of folder tags attached to a flipbook.
// A flipbook normally carries exactly one real folder tag plus, optionally,
// the virtual RecentTag. Order is preserved because the first non-virtual
// entry is the canonical physical location.
type FolderTags []string

// NewFolderTags builds a tag set from a real folder, always including the
// Recent tag (every freshly saved book is recent by definition).
func NewFolderTags(folder string) FolderTags {
	if folder == "" || folder == RecentTag {
		return FolderTags{RecentTag}
	}
	return FolderTags{folder, RecentTag}
}

// Primary returns the first non-virtual tag, or DefaultFolder when the set
// holds only virtual tags.
func (t FolderTags) Primary() string {
	for _, tag := range t {
		if tag != RecentTag {
			return tag
		}
	}
	return DefaultFolder
}

// Has reports whether the set contains the given tag.
func (t FolderTags) Has(tag string) bool {
	return slices.Contains(t, tag)
}

// WithTag returns a copy of the set with the tag appended if absent.
func (t FolderTags) WithTag(tag string) FolderTags {
	if t.Has(tag) {
		return slices.Clone(t)
	}
	out := make(FolderTags, 0, len(t)+1)
	out = append(out, t...)
	return append(out, tag)
}

// WithoutTag returns a copy of the set with every occurrence of tag removed.
func (t FolderTags) WithoutTag(tag string) FolderTags {
	out := make(FolderTags, 0, len(t))
	for _, v := range t {
		if v != tag {
			out = append(out, v)
		}
	}
	return out
}

// ReplaceTag returns a copy of the set with old swapped for new in place,
// preserving order and any virtual tags. If old is absent the set is
// returned unchanged (cloned).
func (t FolderTags) ReplaceTag(old, new string) FolderTags {
	out := slices.Clone(t)
	for i, v := range out {
		if v == old {
			out[i] = new
		}
	}
	return out
}
