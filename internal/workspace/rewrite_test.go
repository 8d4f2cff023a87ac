package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriterApply(t *testing.T) {
	rw := NewRewriter(nil,
		Replacement{Old: "Work/Report", New: "Work/Summary"},
		Replacement{Old: "ast-old", New: "ast-new"},
	)

	in := `<img src="/uploads/u/My_Flipbooks/Work/Report/assets/image/ast-old.png" data-vid="ast-old">`
	out := rw.Apply(in)
	assert.Equal(t, `<img src="/uploads/u/My_Flipbooks/Work/Summary/assets/image/ast-new.png" data-vid="ast-new">`, out)
}

func TestRewriterDropsNoopPairs(t *testing.T) {
	rw := NewRewriter(nil,
		Replacement{Old: "same", New: "same"},
		Replacement{Old: "", New: "x"},
	)
	assert.True(t, rw.Empty())
	assert.Equal(t, "same", rw.Apply("same"))
}

func TestRewriteFileInPlace(t *testing.T) {
	tmp := t.TempDir()
	page := filepath.Join(tmp, "page1.html")
	writeFile(t, page, `<a href="/uploads/u/My_Flipbooks/Old/Book/page2.html">next</a>`)

	rw := NewRewriter(nil, Replacement{Old: "Old/Book", New: "New/Book"})
	require.NoError(t, rw.RewriteFile(page))

	data, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(data), "New/Book")
	assert.NotContains(t, string(data), "Old/Book")
}

func TestRewriteTreeOnlyTouchesHTML(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "page1.html"), "ref: Old/Book")
	writeFile(t, filepath.Join(tmp, "nested", "page2.HTML"), "ref: Old/Book")
	writeFile(t, filepath.Join(tmp, "assets", "image", "ast-1.png"), "Old/Book")

	rw := NewRewriter(nil, Replacement{Old: "Old/Book", New: "New/Book"})
	require.NoError(t, rw.RewriteTree(tmp))

	page1, _ := os.ReadFile(filepath.Join(tmp, "page1.html"))
	page2, _ := os.ReadFile(filepath.Join(tmp, "nested", "page2.HTML"))
	binary, _ := os.ReadFile(filepath.Join(tmp, "assets", "image", "ast-1.png"))

	assert.Equal(t, "ref: New/Book", string(page1))
	assert.Equal(t, "ref: New/Book", string(page2))
	assert.Equal(t, "Old/Book", string(binary))
}
