package deck

import (
	"fmt"
	"testing"

	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

type fakeReconcilable struct {
	slides []string
}

func (f *fakeReconcilable) SlideCount() int { return len(f.slides) }

func (f *fakeReconcilable) RemoveSlideAt(index int) error {
	if index < 0 || index >= len(f.slides) {
		return fmt.Errorf("index %d out of range", index)
	}
	f.slides = append(f.slides[:index], f.slides[index+1:]...)
	return nil
}

func TestReconcile_RemovesExactlyTheTemplateSlides(t *testing.T) {
	deck := &fakeReconcilable{slides: []string{"tmpl1", "tmpl2", "gen1", "gen2", "gen3"}}
	warnings, err := Reconcile(deck, 2, logger.Nop())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(deck.slides) != 3 || deck.slides[0] != "gen1" {
		t.Fatalf("unexpected remaining slides: %v", deck.slides)
	}
}

func TestReconcile_RefusesToEmptyTheDeck(t *testing.T) {
	deck := &fakeReconcilable{slides: []string{"tmpl1", "tmpl2"}}
	warnings, err := Reconcile(deck, 2, logger.Nop())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if len(deck.slides) != 2 {
		t.Fatalf("deck was modified: %v", deck.slides)
	}
}

func TestReconcile_ZeroBaseCountIsNoOp(t *testing.T) {
	deck := &fakeReconcilable{slides: []string{"gen1"}}
	warnings, err := Reconcile(deck, 0, logger.Nop())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(warnings) != 0 || len(deck.slides) != 1 {
		t.Fatalf("unexpected result: warnings=%v slides=%v", warnings, deck.slides)
	}
}

func TestReconcile_NegativeBaseCountIsAnError(t *testing.T) {
	deck := &fakeReconcilable{slides: []string{"gen1"}}
	if _, err := Reconcile(deck, -1, logger.Nop()); err == nil {
		t.Fatalf("expected error")
	}
}
