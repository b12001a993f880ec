package theme

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestCycle(t *testing.T) {
	tests := []struct {
		from, want Theme
	}{
		{Defender, Attacker},
		{Attacker, Cyberpunk},
		{Cyberpunk, Defender},
		{Theme("neon"), Attacker},
	}
	for _, tt := range tests {
		if got := tt.from.Next(); got != tt.want {
			t.Errorf("%q.Next() = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestRootClass(t *testing.T) {
	for th, want := range map[Theme]string{Defender: "", Attacker: "theme-attacker", Cyberpunk: "theme-cyberpunk"} {
		if got := th.RootClass(); got != want {
			t.Errorf("%q.RootClass() = %q, want %q", th, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	if th, err := Parse(" Cyberpunk "); err != nil || th != Cyberpunk {
		t.Errorf("Parse = %q, %v", th, err)
	}
	if _, err := Parse("neon"); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestToggleThreeTimesReturnsToStart(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	c := NewController(ctx, store)
	if c.Current() != Defender {
		t.Fatalf("initial theme = %q", c.Current())
	}

	var notified []Theme
	c.OnChange(func(th Theme) { notified = append(notified, th) })

	want := []Theme{Attacker, Cyberpunk, Defender}
	for i, w := range want {
		got, err := c.Toggle(ctx)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if got != w || c.Current() != w {
			t.Errorf("toggle %d = %q (current %q), want %q", i, got, c.Current(), w)
		}
		saved, _ := store.Load(ctx)
		if saved != string(c.Current()) {
			t.Errorf("toggle %d: persisted %q, displayed %q", i, saved, c.Current())
		}
	}
	if len(notified) != 3 || notified[2] != Defender {
		t.Errorf("listeners saw %v", notified)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		stored string
		want   Theme
	}{
		{"", Defender},
		{"attacker", Attacker},
		{"cyberpunk", Cyberpunk},
		{"neon", Defender},
	}
	for _, tt := range tests {
		store := &MemoryStore{value: tt.stored}
		if got := NewController(ctx, store).Current(); got != tt.want {
			t.Errorf("restore %q = %q, want %q", tt.stored, got, tt.want)
		}
	}
}

func TestSetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	c := NewController(ctx, store)
	calls := 0
	c.OnChange(func(Theme) { calls++ })

	for i := 0; i < 2; i++ {
		if err := c.Set(ctx, Attacker); err != nil {
			t.Fatal(err)
		}
	}
	if c.Current() != Attacker || calls != 2 {
		t.Errorf("current %q calls %d", c.Current(), calls)
	}
	if err := c.Set(ctx, Theme("neon")); err == nil {
		t.Error("expected error for unknown theme")
	}
	if c.Current() != Attacker {
		t.Error("invalid Set must not change the theme")
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, Theme) error { return errors.New("disk full") }
func (failingStore) Load(context.Context) (string, error) {
	return "", errors.New("unavailable")
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()
	c := NewController(ctx, failingStore{})
	if c.Current() != Defender {
		t.Errorf("load failure should fall back to default, got %q", c.Current())
	}
	var notified []Theme
	c.OnChange(func(th Theme) { notified = append(notified, th) })

	if err := c.Set(ctx, Cyberpunk); err == nil {
		t.Error("expected save error")
	}
	if _, err := c.Toggle(ctx); err == nil {
		t.Error("expected save error from Toggle")
	}
	if c.Current() != Defender {
		t.Errorf("failed save changed the displayed theme to %q", c.Current())
	}
	if len(notified) != 0 {
		t.Errorf("listeners notified of unsaved themes: %v", notified)
	}
}

func TestConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	c := NewController(ctx, store)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Toggle(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// Three toggles from defender complete the cycle.
	if c.Current() != Defender {
		t.Errorf("current = %q after three toggles, want defender", c.Current())
	}
	if saved, _ := store.Load(ctx); saved != string(Defender) {
		t.Errorf("saved = %q, want defender", saved)
	}
}
