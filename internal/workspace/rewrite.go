package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Replacement is one old→new literal substitution.
type Replacement struct {
	Old string
	New string
}

// Rewriter applies an ordered set of literal substring replacements to page
// HTML. Asset references are emitted into pages as plain substrings, which
// is the only reason string substitution is a sound rewrite mechanism here.
type Rewriter struct {
	pairs  []Replacement
	logger *slog.Logger
}

// NewRewriter creates a rewriter for the given replacement pairs, applied in
// order. Pairs with identical Old and New, or an empty Old, are dropped.
func NewRewriter(logger *slog.Logger, pairs ...Replacement) *Rewriter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	kept := make([]Replacement, 0, len(pairs))
	for _, p := range pairs {
		if p.Old == "" || p.Old == p.New {
			continue
		}
		kept = append(kept, p)
	}
	return &Rewriter{pairs: kept, logger: logger}
}

// Empty reports whether the rewriter has no effective replacements.
func (r *Rewriter) Empty() bool {
	return len(r.pairs) == 0
}

// Apply runs all replacements over the input.
func (r *Rewriter) Apply(s string) string {
	for _, p := range r.pairs {
		s = strings.ReplaceAll(s, p.Old, p.New)
	}
	return s
}

// RewriteFile applies the replacements to one file in place. The file is
// left untouched when no replacement matches.
func (r *Rewriter) RewriteFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	rewritten := r.Apply(string(data))
	if rewritten == string(data) {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(rewritten), info.Mode().Perm())
}

// RewriteTree applies the replacements to every .html file under root.
// Per-file failures are logged and skipped so one bad page never aborts a
// rename or duplicate cascade; the walk itself failing is returned.
func (r *Rewriter) RewriteTree(root string) error {
	if r.Empty() {
		return nil
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		if err := r.RewriteFile(path); err != nil {
			r.logger.Error("failed to rewrite page content", "path", path, "error", err)
		}
		return nil
	})
}
