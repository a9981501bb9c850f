package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

func TestMemoryStore_GetOrCreate_New(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	sess, err := s.GetOrCreate(context.Background(), "", "user1")
	if err != nil {
		t.Fatalf("GetOrCreate() err = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("GetOrCreate() did not assign an id")
	}
	if sess.Stage != mealmodel.StageMain {
		t.Errorf("Stage = %q, want main", sess.Stage)
	}
	if sess.MenuCategory != mealmodel.MenuJapanese {
		t.Errorf("MenuCategory = %q, want japanese", sess.MenuCategory)
	}
}

func TestMemoryStore_GetOrCreate_OwnershipConflict(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	sess, _ := s.GetOrCreate(context.Background(), "", "user1")

	_, err := s.GetOrCreate(context.Background(), sess.ID, "user2")
	if !mealerr.Is(err, mealerr.KindSessionOwnership) {
		t.Fatalf("GetOrCreate() err = %v, want SessionOwnership", err)
	}
}

func TestMemoryStore_GetOrCreate_SameOwnerReturnsExisting(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	sess1, _ := s.GetOrCreate(context.Background(), "", "user1")
	sess1.Stage = mealmodel.StageSub

	// Mutate through Update so the store's copy actually changes.
	_, err := s.Update(context.Background(), sess1.ID, func(sess *mealmodel.Session) error {
		sess.Stage = mealmodel.StageSub
		return nil
	})
	if err != nil {
		t.Fatalf("Update() err = %v", err)
	}

	sess2, err := s.GetOrCreate(context.Background(), sess1.ID, "user1")
	if err != nil {
		t.Fatalf("GetOrCreate() err = %v", err)
	}
	if sess2.Stage != mealmodel.StageSub {
		t.Errorf("Stage = %q, want sub (existing session should be returned)", sess2.Stage)
	}
}

func TestMemoryStore_Update_UnknownSession(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	_, err := s.Update(context.Background(), "does-not-exist", func(*mealmodel.Session) error { return nil })
	if !mealerr.Is(err, mealerr.KindSessionExpired) {
		t.Fatalf("Update() err = %v, want SessionExpired", err)
	}
}

func TestMemoryStore_EvictIdle(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	sess, _ := s.GetOrCreate(context.Background(), "", "user1")

	evicted, err := s.EvictIdle(context.Background(), time.Now().Add(2*time.Minute))
	if err != nil {
		t.Fatalf("EvictIdle() err = %v", err)
	}
	if len(evicted) != 1 || evicted[0] != sess.ID {
		t.Fatalf("EvictIdle() = %v, want [%s]", evicted, sess.ID)
	}

	if _, err := s.Get(context.Background(), sess.ID); !mealerr.Is(err, mealerr.KindSessionExpired) {
		t.Fatalf("Get() after eviction err = %v, want SessionExpired", err)
	}
}

// TestMemoryStore_Isolation property-tests that concurrent mutation of
// two sessions never lets one session observe the other's state
// (spec.md §8 "Session isolation").
func TestMemoryStore_Isolation(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	a, _ := s.GetOrCreate(context.Background(), "", "userA")
	b, _ := s.GetOrCreate(context.Background(), "", "userB")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Update(context.Background(), a.ID, func(sess *mealmodel.Session) error {
				sess.Context["marker"] = "A"
				return nil
			})
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Update(context.Background(), b.ID, func(sess *mealmodel.Session) error {
				sess.Context["marker"] = "B"
				return nil
			})
		}(i)
	}
	wg.Wait()

	gotA, _ := s.Get(context.Background(), a.ID)
	gotB, _ := s.Get(context.Background(), b.ID)
	if gotA.Context["marker"] != "A" {
		t.Errorf("session A marker = %v, want A", gotA.Context["marker"])
	}
	if gotB.Context["marker"] != "B" {
		t.Errorf("session B marker = %v, want B", gotB.Context["marker"])
	}
}
