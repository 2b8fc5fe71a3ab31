package dag

import (
	"testing"
)

func TestUnion(t *testing.T) {
	a := Build([]Edge{{From: "A", To: "B"}, {From: "B", To: "C"}})
	b := Build([]Edge{{From: "B", To: "C"}, {From: "X", To: "C"}})

	u := Union(a, nil, b)
	if u.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, want 4", u.NodeCount())
	}
	if u.EdgeCount() != 3 {
		t.Errorf("EdgeCount = %d, want 3", u.EdgeCount())
	}
	if got := Union(); got.NodeCount() != 0 {
		t.Errorf("empty union has %d nodes", got.NodeCount())
	}
}

func TestUnionIdempotent(t *testing.T) {
	g := diamond()
	u := Union(g, g)
	if u.NodeCount() != g.NodeCount() || u.EdgeCount() != g.EdgeCount() {
		t.Errorf("union(g, g) = %d/%d, want %d/%d",
			u.NodeCount(), u.EdgeCount(), g.NodeCount(), g.EdgeCount())
	}
}

func TestIntersection(t *testing.T) {
	a := Build([]Edge{{From: "A", To: "B"}, {From: "B", To: "C"}})
	b := Build([]Edge{{From: "B", To: "C"}, {From: "C", To: "D"}})
	_ = a.AddNode(Node{ID: "lonely"})

	tests := []struct {
		name      string
		keepAll   bool
		wantNodes int
		wantEdges int
	}{
		{"EdgeEndpoints", false, 2, 1},
		{"KeepAllVertices", true, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Intersection(a, b, tt.keepAll)
			if got.NodeCount() != tt.wantNodes {
				t.Errorf("NodeCount = %d, want %d", got.NodeCount(), tt.wantNodes)
			}
			if got.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount = %d, want %d", got.EdgeCount(), tt.wantEdges)
			}
		})
	}
}

func TestIntersectionSelf(t *testing.T) {
	g := diamond()
	if !Equal(Intersection(g, g, false), g) {
		t.Error("intersection(g, g) != g")
	}
	if got := Intersection(nil, g, false); got.NodeCount() != 0 {
		t.Errorf("intersection with nil has %d nodes", got.NodeCount())
	}
}

func TestIndex(t *testing.T) {
	g := diamond()
	_ = g.Connect("X", "Y")
	ix := NewIndex(g, true)

	id := func(s string) int {
		v, ok := ix.ID(s)
		if !ok {
			t.Fatalf("no id for %s", s)
		}
		return v
	}

	tests := []struct {
		a, b string
		want bool
	}{
		{"A", "E", true},
		{"B", "E", true},
		{"B", "C", false},
		{"E", "A", false},
		{"A", "A", false},
		{"X", "E", false},
		{"X", "Y", true},
	}
	for _, tt := range tests {
		if got := ix.IsAncestor(id(tt.a), id(tt.b)); got != tt.want {
			t.Errorf("IsAncestor(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	for _, code := range []string{"A", "E", "X", "Y"} {
		if !ix.IsAncestor(VirtualRoot, id(code)) {
			t.Errorf("virtual root is not above %s", code)
		}
	}
	if got := ix.Ancestors(id("E")).Count(); got != 5 {
		t.Errorf("|ancestors(E)| = %d, want 5 (A B C D + virtual)", got)
	}

	plain := NewIndex(g, false)
	e, _ := plain.ID("E")
	if plain.IsAncestor(VirtualRoot, e) {
		t.Error("index without virtual root reports one")
	}
}

func TestBitset(t *testing.T) {
	b := NewBitset(130)
	for _, i := range []int{0, 63, 64, 129} {
		b.Set(i)
	}
	if b.Count() != 4 {
		t.Errorf("Count = %d, want 4", b.Count())
	}
	var got []int
	b.Each(func(i int) { got = append(got, i) })
	want := []int{0, 63, 64, 129}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each = %v, want %v", got, want)
		}
	}

	o := NewBitset(130)
	o.Set(64)
	c := b.Clone()
	c.And(o)
	if c.Count() != 1 || !c.Has(64) || b.Count() != 4 {
		t.Errorf("And/Clone mismatch: c=%v b=%v", c, b)
	}
}
