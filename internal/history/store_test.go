package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gramline/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndCount(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.RecordPost(ctx, history.Post{Month: 3, Image: "a.jpg", Caption: "hi"}); err != nil {
			t.Fatalf("RecordPost: %v", err)
		}
	}
	if _, err := store.RecordPost(ctx, history.Post{Month: 7, Image: "b.jpg", Caption: "yo"}); err != nil {
		t.Fatalf("RecordPost: %v", err)
	}

	count, err := store.CountForMonth(ctx, 3)
	if err != nil {
		t.Fatalf("CountForMonth: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	count, err = store.CountForMonth(ctx, 12)
	if err != nil {
		t.Fatalf("CountForMonth: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestLastPostOrdering(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	posts := []history.Post{
		{Month: 1, Image: "old.jpg", Caption: "old", PostedAt: base},
		{Month: 2, Image: "mid.jpg", Caption: "mid", PostedAt: base.Add(time.Hour)},
		{Month: 1, Image: "new.jpg", Caption: "new", PostedAt: base.Add(2 * time.Hour)},
	}
	for _, post := range posts {
		if _, err := store.RecordPost(ctx, post); err != nil {
			t.Fatalf("RecordPost: %v", err)
		}
	}

	last, err := store.LastPost(ctx)
	if err != nil {
		t.Fatalf("LastPost: %v", err)
	}
	if last == nil || last.Image != "new.jpg" {
		t.Fatalf("last = %+v, want new.jpg", last)
	}

	monthLast, err := store.LastPostForMonth(ctx, 1)
	if err != nil {
		t.Fatalf("LastPostForMonth: %v", err)
	}
	if monthLast == nil || monthLast.Image != "new.jpg" {
		t.Fatalf("month last = %+v, want new.jpg", monthLast)
	}

	empty, err := store.LastPostForMonth(ctx, 9)
	if err != nil {
		t.Fatalf("LastPostForMonth empty: %v", err)
	}
	if empty != nil {
		t.Fatalf("empty month last = %+v, want nil", empty)
	}
}

func TestRecentPostsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		post := history.Post{Month: i + 1, Image: "img.jpg", Caption: "c", PostedAt: base.Add(time.Duration(i) * time.Minute)}
		if _, err := store.RecordPost(ctx, post); err != nil {
			t.Fatalf("RecordPost: %v", err)
		}
	}

	recent, err := store.RecentPosts(ctx, 3)
	if err != nil {
		t.Fatalf("RecentPosts: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("len = %d, want 3", len(recent))
	}
	if recent[0].Month != 5 || recent[2].Month != 3 {
		t.Fatalf("order = %d,%d,%d, want 5,4,3", recent[0].Month, recent[1].Month, recent[2].Month)
	}
}

func TestEmptyLedger(t *testing.T) {
	store := openStore(t)
	last, err := store.LastPost(context.Background())
	if err != nil {
		t.Fatalf("LastPost: %v", err)
	}
	if last != nil {
		t.Fatalf("last = %+v, want nil", last)
	}
}
