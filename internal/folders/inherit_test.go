package folders

import (
	"testing"

	"magazyn-dokumentow/internal/models"

	"github.com/stretchr/testify/require"
)

func userGrant(userID int64, actions ...string) models.ShareGrant {
	return models.ShareGrant{UserID: &userID, Actions: actions}
}

func groupGrant(groupID string, actions ...string) models.ShareGrant {
	return models.ShareGrant{GroupID: &groupID, Actions: actions}
}

func folderNode(id string, parentID *string, shares models.ShareGrants) models.Node {
	if shares == nil {
		shares = models.ShareGrants{}
	}
	return models.Node{
		ID:              id,
		NodeType:        models.NodeTypeFolder,
		ParentID:        parentID,
		Name:            id,
		OwnerID:         1,
		Shares:          shares,
		InheritedShares: models.ShareGrants{},
	}
}

func TestMergeGrants_DisjointPrincipals(t *testing.T) {
	near := models.ShareGrants{userGrant(2, "read")}
	far := models.ShareGrants{groupGrant("grupa-3a", "read", "write")}

	merged := mergeGrants(near, far)

	require.Len(t, merged, 2)
	require.True(t, merged.Covers(2, nil))
	require.True(t, merged.Covers(99, []string{"grupa-3a"}))
}

func TestMergeGrants_CloserEntryWins(t *testing.T) {
	near := models.ShareGrants{userGrant(2, "read")}
	far := models.ShareGrants{userGrant(2, "read", "write", "manage")}

	merged := mergeGrants(near, far)

	require.Len(t, merged, 1)
	require.Equal(t, []string{"read"}, merged[0].Actions)
}

func TestMergeGrants_EmptyInputs(t *testing.T) {
	merged := mergeGrants(models.ShareGrants{}, models.ShareGrants{})
	require.NotNil(t, merged)
	require.Empty(t, merged)
}

func TestMergeShared_NilParentClearsInherited(t *testing.T) {
	node := folderNode("child", nil, nil)
	node.InheritedShares = models.ShareGrants{userGrant(5, "read")}

	mergeShared(nil, &node)

	require.NotNil(t, node.InheritedShares)
	require.Empty(t, node.InheritedShares)
}

func TestMergeShared_ParentDirectAndInherited(t *testing.T) {
	parent := folderNode("parent", nil, models.ShareGrants{userGrant(2, "read")})
	parent.InheritedShares = models.ShareGrants{groupGrant("grupa-3a", "read")}
	child := folderNode("child", &parent.ID, nil)

	mergeShared(&parent, &child)

	require.Len(t, child.InheritedShares, 2)
	require.True(t, child.InheritedShares.Covers(2, nil))
	require.True(t, child.InheritedShares.Covers(99, []string{"grupa-3a"}))
}

func TestComputeSubtree_GrantReachesEveryLevel(t *testing.T) {
	root := folderNode("root", nil, models.ShareGrants{userGrant(2, "read")})
	mid := folderNode("mid", &root.ID, nil)
	leaf := folderNode("leaf", &mid.ID, nil)

	updates := computeSubtree(&root, []models.Node{mid, leaf})

	require.Len(t, updates, 2)
	for _, u := range updates {
		require.True(t, u.InheritedShares.Covers(2, nil), "node %s should inherit the root grant", u.NodeID)
	}
}

func TestComputeSubtree_IntermediateGrantShadows(t *testing.T) {
	root := folderNode("root", nil, models.ShareGrants{userGrant(2, "read", "write")})
	mid := folderNode("mid", &root.ID, models.ShareGrants{userGrant(2, "read")})
	leaf := folderNode("leaf", &mid.ID, nil)

	updates := computeSubtree(&root, []models.Node{mid, leaf})

	byID := make(map[string]models.ShareGrants)
	for _, u := range updates {
		byID[u.NodeID] = u.InheritedShares
	}

	// mid inherits the root's full grant; leaf sees mid's narrower direct
	// grant shadowing it.
	require.Equal(t, []string{"read", "write"}, byID["mid"][0].Actions)
	require.Len(t, byID["leaf"], 1)
	require.Equal(t, []string{"read"}, byID["leaf"][0].Actions)
}

func TestComputeSubtree_NoDescendants(t *testing.T) {
	root := folderNode("root", nil, models.ShareGrants{userGrant(2, "read")})

	updates := computeSubtree(&root, nil)

	require.NotNil(t, updates)
	require.Empty(t, updates)
}
