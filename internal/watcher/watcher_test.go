package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeHealer) HealBook(_ context.Context, email, folder, book string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, email+"/"+folder+"/"+book)
	return nil
}

func (f *fakeHealer) healed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestBookFromPath(t *testing.T) {
	w := &Watcher{root: "/data/uploads"}

	tests := []struct {
		path string
		want bookKey
		ok   bool
	}{
		{"/data/uploads/u_example_com/My_Flipbooks/Work/Report/page1.html",
			bookKey{"u_example_com", "Work", "Report"}, true},
		{"/data/uploads/u_example_com/My_Flipbooks/Work/Report/assets/image/a.png",
			bookKey{"u_example_com", "Work", "Report"}, true},
		// Folder level: no book yet.
		{"/data/uploads/u_example_com/My_Flipbooks/Work", bookKey{}, false},
		// Gallery tree is not book-shaped.
		{"/data/uploads/u_example_com/Images/a.png", bookKey{}, false},
		// Outside the root entirely.
		{"/elsewhere/file.html", bookKey{}, false},
	}
	for _, tt := range tests {
		got, ok := w.bookFromPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.path)
		}
	}
}

func TestWatcherHealsDroppedBook(t *testing.T) {
	root := t.TempDir()
	healer := &fakeHealer{}

	w, err := New(root, healer, Options{SettleDelay: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher a moment to register the root.
	time.Sleep(100 * time.Millisecond)

	dir := filepath.Join(root, "u_example_com", "My_Flipbooks", "Legacy", "Old Book")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page1.html"), []byte("<p>hi</p>"), 0o644))

	assert.Eventually(t, func() bool {
		for _, c := range healer.healed() {
			if c == "u_example_com/Legacy/Old Book" {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond, "dropped book must be healed")

	cancel()
	require.NoError(t, <-done)
}

func TestScheduleReplacesFiredTimer(t *testing.T) {
	healer := &fakeHealer{}
	w, err := New(t.TempDir(), healer, Options{SettleDelay: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	key := bookKey{email: "u_example_com", folder: "Work", book: "Report"}

	// Plant a timer whose callback has fired but not finished, the state a
	// burst leaves behind when an event lands between the timer firing and
	// its callback completing. Re-arming it would run the callback twice for
	// one wg.Add and blow the counter.
	released := make(chan struct{})
	w.wg.Add(1)
	w.pending[key] = time.AfterFunc(0, func() {
		defer w.wg.Done()
		<-released
	})
	time.Sleep(10 * time.Millisecond)

	w.schedule(ctx, key)
	close(released)

	assert.Eventually(t, func() bool {
		return len(healer.healed()) == 1
	}, 2*time.Second, 10*time.Millisecond, "the new event must still produce a heal")
	w.wg.Wait()
	require.NoError(t, w.fsw.Close())
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	healer := &fakeHealer{}

	w, err := New(root, healer, Options{SettleDelay: 200 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)

	dir := filepath.Join(root, "u_example_com", "My_Flipbooks", "Work", "Report")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for i := 1; i <= 5; i++ {
		name := filepath.Join(dir, "page"+strconv.Itoa(i)+".html")
		require.NoError(t, os.WriteFile(name, []byte("<p></p>"), 0o644))
	}

	assert.Eventually(t, func() bool {
		return len(healer.healed()) >= 1
	}, 5*time.Second, 50*time.Millisecond)

	// The burst settles into one heal, not one per file.
	time.Sleep(500 * time.Millisecond)
	assert.Len(t, healer.healed(), 1)

	cancel()
	require.NoError(t, <-done)
}
