package regroup

import (
	"sort"

	"github.com/lthms/regroup/internal/scene"
)

// item is the unit of reconciliation: a cluster, the groups owning its
// members and the members owned by no group.
type item struct {
	members []scene.Handle
	owners  []scene.Handle
	orphans []scene.Handle
}

// classify builds one item per cluster, ordered by descending owner count
// so merges run before splits. The sort is stable.
func (p *pass) classify(clusters [][]scene.Handle) []item {
	items := make([]item, 0, len(clusters))
	for _, c := range clusters {
		items = append(items, p.classifyOne(c))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return len(items[i].owners) > len(items[j].owners)
	})
	return items
}

// classifyOne resolves the owner of each member: its nearest group
// ancestor. Owners keep first-seen order.
func (p *pass) classifyOne(members []scene.Handle) item {
	it := item{members: members}
	var owners orderedSet
	for _, b := range members {
		g := p.Hierarchy.NearestAncestor(b, scene.KindGroup)
		if g == scene.None {
			it.orphans = append(it.orphans, b)
			continue
		}
		owners.add(g)
	}
	it.owners = owners.items
	return it
}
