package viewer

import (
	"testing"

	"github.com/wesm/mediaview/internal/testutil"
)

func newEditor(vocab ...string) *TagEditor {
	e := NewTagEditor()
	e.SetVocabulary(vocab)
	e.Activate()
	return e
}

func TestSetQuery_CaseInsensitive(t *testing.T) {
	e := newEditor("Beach", "sunset", "BEACHBALL", "mountain", "Straße")
	e.SetQuery("beach")
	testutil.AssertStrings(t, e.Matches, "Beach", "BEACHBALL")

	e.SetQuery("STRASSE")
	testutil.AssertStrings(t, e.Matches, "Straße")
}

func TestSetQuery_EmptyClears(t *testing.T) {
	e := newEditor("beach")
	e.SetQuery("b")
	e.MoveSelection(1)
	e.SetQuery("")
	if len(e.Matches) != 0 {
		t.Errorf("Matches = %v, want none", e.Matches)
	}
	if e.Selected != -1 {
		t.Errorf("Selected = %d, want -1", e.Selected)
	}
}

func TestSetQuery_ResetsSelection(t *testing.T) {
	e := newEditor("beach", "bench")
	e.SetQuery("be")
	e.MoveSelection(1)
	e.SetQuery("bea")
	if e.Selected != -1 {
		t.Errorf("Selected = %d, want -1 after new query", e.Selected)
	}
}

func TestMoveSelection_Clamps(t *testing.T) {
	e := newEditor("a1", "a2", "a3")
	e.SetQuery("a")

	e.MoveSelection(-1)
	if e.Selected != -1 {
		t.Errorf("Selected = %d, want -1", e.Selected)
	}
	for range 10 {
		e.MoveSelection(1)
	}
	if e.Selected != 2 {
		t.Errorf("Selected = %d, want 2", e.Selected)
	}

	e.SetQuery("zzz")
	e.MoveSelection(1)
	if e.Selected != -1 {
		t.Errorf("Selected = %d, want -1 with no matches", e.Selected)
	}
}

func TestConfirm(t *testing.T) {
	t.Run("trims raw input", func(t *testing.T) {
		e := newEditor()
		e.SetQuery("  sunset  ")
		tag, ok := e.Confirm()
		if !ok || tag != "sunset" {
			t.Errorf("Confirm() = %q, %v; want sunset, true", tag, ok)
		}
		if e.Active {
			t.Error("Confirm should exit edit mode")
		}
	})

	t.Run("prefers selection", func(t *testing.T) {
		e := newEditor("beach", "beachball")
		e.SetQuery("bea")
		e.MoveSelection(2)
		tag, ok := e.Confirm()
		if !ok || tag != "beachball" {
			t.Errorf("Confirm() = %q, %v; want beachball, true", tag, ok)
		}
	})

	t.Run("blank adds nothing", func(t *testing.T) {
		e := newEditor()
		e.SetQuery("   ")
		if tag, ok := e.Confirm(); ok {
			t.Errorf("Confirm() = %q, want nothing", tag)
		}
		if e.Active {
			t.Error("Confirm should exit edit mode")
		}
	})
}

func TestCancel(t *testing.T) {
	e := newEditor("beach")
	e.SetQuery("b")
	e.Cancel()
	if e.Active || e.Query != "" || e.Matches != nil || e.Selected != -1 {
		t.Errorf("Cancel left state %+v", e)
	}
}

func TestStarTag(t *testing.T) {
	want := []string{"1-★", "2-★★", "3-★★★", "4-★★★★", "5-★★★★★"}
	for i, w := range want {
		got, ok := StarTag(i + 1)
		if !ok || got != w {
			t.Errorf("StarTag(%d) = %q, %v; want %q", i+1, got, ok, w)
		}
	}
	for _, n := range []int{0, 6, -1} {
		if _, ok := StarTag(n); ok {
			t.Errorf("StarTag(%d) should be invalid", n)
		}
	}
}

func TestSetVocabulary_KeepsHighlight(t *testing.T) {
	e := newEditor("sunset", "sunrise")
	e.SetQuery("sun")
	e.MoveSelection(1)
	e.MoveSelection(1)
	if got := e.Matches[e.Selected]; got != "sunrise" {
		t.Fatalf("highlighted = %q, want sunrise", got)
	}

	// A tag added elsewhere lands in the vocabulary ahead of the highlight
	e.SetVocabulary([]string{"sunny", "sunset", "sunrise"})
	testutil.AssertStrings(t, e.Matches, "sunny", "sunset", "sunrise")
	if e.Selected != 2 {
		t.Errorf("Selected = %d, want 2 (still sunrise)", e.Selected)
	}
	tag, ok := e.Confirm()
	if !ok || tag != "sunrise" {
		t.Errorf("Confirm() = %q, %v, want sunrise", tag, ok)
	}
}

func TestSetVocabulary_DropsVanishedHighlight(t *testing.T) {
	e := newEditor("sunset", "sunrise")
	e.SetQuery("sun")
	e.MoveSelection(1)

	e.SetVocabulary([]string{"sunrise"})
	if e.Selected != -1 {
		t.Errorf("Selected = %d, want -1 when the highlighted tag is gone", e.Selected)
	}
}
