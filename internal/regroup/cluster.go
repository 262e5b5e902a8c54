package regroup

import "github.com/lthms/regroup/internal/scene"

// cluster partitions bricks into disjoint connectivity clusters. A brick
// with connectivity disabled is its own singleton cluster. When within is
// non-nil, clusters are restricted to its members. Clusters and their
// members come in first-discovery order.
func cluster(conn Connectivity, bricks []scene.Handle, within *orderedSet) [][]scene.Handle {
	visited := make(map[scene.Handle]bool, len(bricks))
	var out [][]scene.Handle
	for _, b := range bricks {
		if visited[b] {
			continue
		}
		visited[b] = true
		members := []scene.Handle{b}
		if conn.ConnectivityEnabled(b) {
			for _, o := range conn.ConnectedBricks(b) {
				if visited[o] || (within != nil && !within.has(o)) {
					continue
				}
				visited[o] = true
				members = append(members, o)
			}
		}
		out = append(out, members)
	}
	return out
}
