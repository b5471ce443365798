package api

import (
	"encoding/json"
	"net/http"

	"magazyn-dokumentow/internal/folders"

	"github.com/go-chi/chi/v5"
)

type ShareRequest struct {
	UserID  *int64   `json:"user_id" example:"2"`
	GroupID *string  `json:"group_id" example:"grupa-3a"`
	Actions []string `json:"actions" example:"read,write"`
	Remove  bool     `json:"remove"`
}

// @Summary      Share or unshare a node
// @Description  Grants actions on the node to a user or a group, or revokes the principal's grant when remove is set. For folders the change propagates to the inherited shares of the entire subtree before the call returns.
// @Tags         shares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId        path  string        true  "Node id"
// @Param        shareRequest  body  ShareRequest  true  "Grant or revoke details"
// @Success      200  {object}  models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId}/share [post]
func (s *Server) ShareNodeHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	var req ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if (req.UserID == nil) == (req.GroupID == nil) {
		http.Error(w, "Exactly one of 'user_id' and 'group_id' is required", http.StatusBadRequest)
		return
	}
	if !req.Remove && len(req.Actions) == 0 {
		http.Error(w, "At least one action is required for a grant", http.StatusBadRequest)
		return
	}

	op := folders.ShareOp{
		UserID:  req.UserID,
		GroupID: req.GroupID,
		Actions: req.Actions,
	}
	switch {
	case req.UserID != nil && req.Remove:
		op.Kind = folders.UserShareRemove
	case req.UserID != nil:
		op.Kind = folders.UserShare
	case req.Remove:
		op.Kind = folders.GroupShareRemove
	default:
		op.Kind = folders.GroupShare
	}

	node, err := s.manager.Share(r.Context(), nodeID, op, ident)
	if err != nil {
		writeManagerError(w, err, "Failed to update sharing")
		return
	}

	s.logNodeEvent(r.Context(), ident, "node_shared", node)
	writeJSON(w, http.StatusOK, node)
}
