package folders

import (
	"magazyn-dokumentow/internal/database"
	"magazyn-dokumentow/internal/models"
)

// mergeGrants folds an ancestor chain's grants into one list. near carries
// the grants of the closest ancestor, far everything it inherited itself;
// when both mention a principal the closer entry wins whole.
func mergeGrants(near, far models.ShareGrants) models.ShareGrants {
	merged := make(models.ShareGrants, 0, len(near)+len(far))
	merged = append(merged, near...)

	for _, grant := range far {
		shadowed := false
		for _, closer := range near {
			if closer.SamePrincipal(grant) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			merged = append(merged, grant)
		}
	}

	return merged
}

// mergeShared sets node.InheritedShares from its parent: everything the
// parent grants directly plus everything the parent itself inherited. Called
// at creation time and whenever a node is re-parented.
func mergeShared(parent *models.Node, node *models.Node) {
	if parent == nil {
		node.InheritedShares = models.ShareGrants{}
		return
	}
	node.InheritedShares = mergeGrants(parent.Shares, parent.InheritedShares)
}

// computeSubtree recomputes inherited shares for every descendant of root,
// walking the already-fetched flat list breadth-first. Each descendant's
// inherited set comes from its own parent's merged grants, so a grant made
// three levels up still reaches a leaf. Returns one update instruction per
// descendant; the caller applies them as a single batch.
func computeSubtree(root *models.Node, descendants []models.Node) []database.InheritedShareUpdate {
	byParent := make(map[string][]*models.Node, len(descendants))
	for i := range descendants {
		node := &descendants[i]
		if node.ParentID == nil {
			continue
		}
		byParent[*node.ParentID] = append(byParent[*node.ParentID], node)
	}

	updates := make([]database.InheritedShareUpdate, 0, len(descendants))

	queue := []*models.Node{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		for _, child := range byParent[parent.ID] {
			mergeShared(parent, child)
			updates = append(updates, database.InheritedShareUpdate{
				NodeID:          child.ID,
				InheritedShares: child.InheritedShares,
			})
			queue = append(queue, child)
		}
	}

	return updates
}
