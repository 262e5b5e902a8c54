package regroup

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lthms/regroup/internal/scene"
)

// graph is an in-memory Connectivity.
type graph struct {
	disabled map[scene.Handle]bool
	adj      map[scene.Handle][]scene.Handle
	calls    int
}

func newGraph(edges ...[2]scene.Handle) *graph {
	g := &graph{disabled: map[scene.Handle]bool{}, adj: map[scene.Handle][]scene.Handle{}}
	for _, e := range edges {
		g.adj[e[0]] = append(g.adj[e[0]], e[1])
		g.adj[e[1]] = append(g.adj[e[1]], e[0])
	}
	for _, ns := range g.adj {
		sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
	}
	return g
}

func (g *graph) ConnectivityEnabled(b scene.Handle) bool { return !g.disabled[b] }

func (g *graph) ConnectedBricks(b scene.Handle) []scene.Handle {
	g.calls++
	if g.disabled[b] {
		return nil
	}
	seen := map[scene.Handle]bool{b: true}
	queue := []scene.Handle{b}
	var out []scene.Handle
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.adj[cur] {
			if seen[n] || g.disabled[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

func TestCluster(t *testing.T) {
	tests := []struct {
		name     string
		edges    [][2]scene.Handle
		disabled []scene.Handle
		bricks   []scene.Handle
		want     [][]scene.Handle
	}{
		{
			name:   "isolated bricks",
			bricks: []scene.Handle{1, 2, 3},
			want:   [][]scene.Handle{{1}, {2}, {3}},
		},
		{
			name:   "chain",
			edges:  [][2]scene.Handle{{1, 2}, {2, 3}},
			bricks: []scene.Handle{1, 2, 3},
			want:   [][]scene.Handle{{1, 2, 3}},
		},
		{
			name:   "discovery order follows input",
			edges:  [][2]scene.Handle{{1, 2}, {3, 4}},
			bricks: []scene.Handle{4, 1, 2, 3},
			want:   [][]scene.Handle{{4, 3}, {1, 2}},
		},
		{
			name:   "connected bricks outside the input join the cluster",
			edges:  [][2]scene.Handle{{1, 9}},
			bricks: []scene.Handle{1},
			want:   [][]scene.Handle{{1, 9}},
		},
		{
			name:     "disabled brick is a singleton and breaks the path",
			edges:    [][2]scene.Handle{{1, 2}, {2, 3}},
			disabled: []scene.Handle{2},
			bricks:   []scene.Handle{1, 2, 3},
			want:     [][]scene.Handle{{1}, {2}, {3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(tt.edges...)
			for _, d := range tt.disabled {
				g.disabled[d] = true
			}
			got := cluster(g, tt.bricks, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("clusters (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClusterWithin(t *testing.T) {
	// 1-9-2 is one cluster; restricted to {1, 2, 3} it stays together since
	// the path through 9 still connects them.
	g := newGraph([2]scene.Handle{1, 9}, [2]scene.Handle{9, 2})
	var within orderedSet
	within.add(1, 2, 3)

	got := cluster(g, []scene.Handle{1, 2, 3}, &within)
	want := [][]scene.Handle{{1, 2}, {3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("clusters (-want +got):\n%s", diff)
	}
}

func TestClusterVisitsEachBrickOnce(t *testing.T) {
	var edges [][2]scene.Handle
	var bricks []scene.Handle
	for i := scene.Handle(1); i <= 100; i++ {
		bricks = append(bricks, i)
		if i > 1 {
			edges = append(edges, [2]scene.Handle{i - 1, i})
		}
	}
	g := newGraph(edges...)

	got := cluster(g, bricks, nil)
	if len(got) != 1 || len(got[0]) != 100 {
		t.Fatalf("got %d clusters, want one of 100 bricks", len(got))
	}
	if g.calls != 1 {
		t.Errorf("ConnectedBricks called %d times, want 1", g.calls)
	}
}

func TestClassifyOrdersByOwnerCount(t *testing.T) {
	f := newFixture(t)
	m := f.model("m", scene.None)
	g1 := f.group("g1", m)
	g2 := f.group("g2", m)
	lone := f.brick("lone", scene.None, 0)
	single := f.brick("single", g1, 1)
	x := f.brick("x", g1, 2)
	y := f.brick("y", g2, 3)

	p := New(ForScene(f.s)).newPass()
	items := p.classify([][]scene.Handle{{lone}, {single}, {x, y}})

	var got [][]scene.Handle
	for _, it := range items {
		got = append(got, it.members)
	}
	want := [][]scene.Handle{{x, y}, {single}, {lone}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]scene.Handle{g1, g2}, items[0].owners); diff != "" {
		t.Errorf("owners (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]scene.Handle{lone}, items[2].orphans); diff != "" {
		t.Errorf("orphans (-want +got):\n%s", diff)
	}
}
