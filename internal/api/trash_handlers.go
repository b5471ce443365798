package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type AffectedNodesResponse struct {
	NodeIDs []string `json:"node_ids"`
}

// @Summary      Move a node to trash
// @Description  Soft-deletes the node and, for a folder, its entire live subtree in one operation. Returns the affected ids. Trashing an already trashed subtree is a no-op.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node id"
// @Success      200  {object}  AffectedNodesResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId} [delete]
func (s *Server) TrashNodeHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	if nodeID == "" {
		http.Error(w, "Node ID is required", http.StatusBadRequest)
		return
	}

	ids, err := s.manager.Trash(r.Context(), nodeID, ident)
	if err != nil {
		writeManagerError(w, err, "Failed to trash node")
		return
	}

	if node, err := s.store.GetNodeByID(r.Context(), nodeID); err == nil && node != nil {
		s.logNodeEvent(r.Context(), ident, "node_trashed", node)
	}
	writeJSON(w, http.StatusOK, AffectedNodesResponse{NodeIDs: ids})
}

// @Summary      Restore a node from trash
// @Description  Clears the trash flag on the node and its subtree. Restoring a live subtree is a no-op.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node id"
// @Success      200  {object}  AffectedNodesResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId}/restore [post]
func (s *Server) RestoreNodeHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	ids, err := s.manager.Restore(r.Context(), nodeID, ident)
	if err != nil {
		writeManagerError(w, err, "Failed to restore node")
		return
	}

	if node, err := s.store.GetNodeByID(r.Context(), nodeID); err == nil && node != nil {
		s.logNodeEvent(r.Context(), ident, "node_restored", node)
	}
	writeJSON(w, http.StatusOK, AffectedNodesResponse{NodeIDs: ids})
}

// @Summary      Permanently delete a node
// @Description  Removes the node and, for a folder, its whole subtree from both the metadata store and the blob store. Works on trashed and live nodes alike. This action cannot be undone.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node id"
// @Success      200  {object}  AffectedNodesResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId}/purge [delete]
func (s *Server) PurgeNodeHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	ids, err := s.manager.Delete(r.Context(), nodeID, ident)
	if err != nil && ids == nil {
		writeManagerError(w, err, "Failed to delete node")
		return
	}

	// Metadata is gone even when some blob removals failed.
	writeJSON(w, http.StatusOK, AffectedNodesResponse{NodeIDs: ids})
}
