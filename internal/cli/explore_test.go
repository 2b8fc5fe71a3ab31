package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/genealogy"
)

func diamondEngine(t *testing.T) *genealogy.Engine {
	t.Helper()
	g := dag.New(nil)
	for _, e := range [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}, {"D", "E"}} {
		if err := g.Connect(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	return genealogy.New(g)
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func TestExploreModelNavigation(t *testing.T) {
	m := newExploreModel(diamondEngine(t), "D")
	if got := strings.Join(m.items(), ","); got != "B,C,E" {
		t.Fatalf("items of D = %q, want B,C,E", got)
	}

	// Cursor on C (second parent), then open it.
	next := press(m, "j", "enter").(exploreModel)
	if next.code != "C" {
		t.Fatalf("code after enter = %q, want C", next.code)
	}
	if got := strings.Join(next.history, ","); got != "D" {
		t.Errorf("history = %q, want D", got)
	}
	if got := strings.Join(next.items(), ","); got != "A,D" {
		t.Errorf("items of C = %q, want A,D", got)
	}

	back := press(next, "backspace").(exploreModel)
	if back.code != "D" || len(back.history) != 0 {
		t.Errorf("after back: code %q history %v", back.code, back.history)
	}
}

func TestExploreModelCursorBounds(t *testing.T) {
	m := newExploreModel(diamondEngine(t), "A")
	m = press(m, "k").(exploreModel)
	if m.cursor != 0 {
		t.Errorf("cursor moved above the first item: %d", m.cursor)
	}
	m = press(m, "j", "j", "j").(exploreModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1 (last child)", m.cursor)
	}
}

func TestExploreModelQuit(t *testing.T) {
	m := newExploreModel(diamondEngine(t), "A")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestExploreModelView(t *testing.T) {
	root := newExploreModel(diamondEngine(t), "A").View()
	for _, want := range []string{"Children (2)", "(root)"} {
		if !strings.Contains(root, want) {
			t.Errorf("view of A missing %q:\n%s", want, root)
		}
	}

	leaf := newExploreModel(diamondEngine(t), "E").View()
	for _, want := range []string{"Parents (1)", "(leaf)"} {
		if !strings.Contains(leaf, want) {
			t.Errorf("view of E missing %q:\n%s", want, leaf)
		}
	}
}

func TestExploreModelViewHistory(t *testing.T) {
	m := press(newExploreModel(diamondEngine(t), "A"), "enter").(exploreModel)
	if view := m.View(); !strings.Contains(view, "A ›") {
		t.Errorf("view after opening B missing history trail:\n%s", view)
	}
}
