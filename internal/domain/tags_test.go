package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFolderTags(t *testing.T) {
	assert.Equal(t, FolderTags{"Work", RecentTag}, NewFolderTags("Work"))
	assert.Equal(t, FolderTags{RecentTag}, NewFolderTags(""))
	assert.Equal(t, FolderTags{RecentTag}, NewFolderTags(RecentTag))
}

func TestFolderTagsPrimary(t *testing.T) {
	assert.Equal(t, "Work", FolderTags{"Work", RecentTag}.Primary())
	assert.Equal(t, "Work", FolderTags{RecentTag, "Work"}.Primary())
	assert.Equal(t, DefaultFolder, FolderTags{RecentTag}.Primary())
	assert.Equal(t, DefaultFolder, FolderTags{}.Primary())
}

func TestFolderTagsWithAndWithout(t *testing.T) {
	tags := FolderTags{"Work"}

	withRecent := tags.WithTag(RecentTag)
	assert.Equal(t, FolderTags{"Work", RecentTag}, withRecent)
	assert.Equal(t, withRecent, withRecent.WithTag(RecentTag), "WithTag is idempotent")

	assert.Equal(t, FolderTags{"Work"}, withRecent.WithoutTag(RecentTag))
	assert.Equal(t, FolderTags{"Work"}, tags.WithoutTag("absent"))
}

func TestFolderTagsReplaceTag(t *testing.T) {
	tags := FolderTags{"Work", RecentTag}

	moved := tags.ReplaceTag("Work", "Archive")
	assert.Equal(t, FolderTags{"Archive", RecentTag}, moved)
	assert.Equal(t, tags, tags.ReplaceTag("absent", "X"))

	// The receiver is never mutated.
	assert.Equal(t, FolderTags{"Work", RecentTag}, tags)
}
