package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"magazyn-dokumentow/internal/config"
	"magazyn-dokumentow/internal/database"
	"magazyn-dokumentow/internal/folders"
	"magazyn-dokumentow/internal/models"
	"magazyn-dokumentow/internal/storage"
	"magazyn-dokumentow/internal/websocket"
)

type Server struct {
	config  *config.Config
	store   *database.Store
	storage storage.BlobStore
	manager *folders.Manager
	wsHub   *websocket.Hub
}

func NewServer(cfg *config.Config, store *database.Store, blobs storage.BlobStore, manager *folders.Manager, wsHub *websocket.Hub) *Server {
	return &Server{
		config:  cfg,
		store:   store,
		storage: blobs,
		manager: manager,
		wsHub:   wsHub,
	}
}

// @Summary      Health check
// @Description  Returns 200 when the service is up.
// @Tags         health
// @Success      200  {string}  string "OK"
// @Router       /health [get]
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// writeManagerError translates the manager's sentinel errors into HTTP
// statuses. Anything unrecognized is a 500 with a generic body.
func writeManagerError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, folders.ErrNotFound):
		http.Error(w, "Node not found or you do not have permission to access it", http.StatusNotFound)
	case errors.Is(err, folders.ErrParentNotFound):
		http.Error(w, "Destination folder does not exist", http.StatusBadRequest)
	case errors.Is(err, folders.ErrCycle):
		http.Error(w, "Cannot move a folder into itself or its own subtree", http.StatusBadRequest)
	case errors.Is(err, folders.ErrNotAFolder):
		http.Error(w, "Target node is not a folder", http.StatusBadRequest)
	case errors.Is(err, folders.ErrPartialNotFound):
		http.Error(w, "One or more requested nodes were not found", http.StatusNotFound)
	case errors.Is(err, folders.ErrInvalidType):
		http.Error(w, "Node has an unsupported type", http.StatusBadRequest)
	default:
		log.Printf("ERROR: %s: %v", fallback, err)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// logNodeEvent records the event in the journal and pushes it to the live
// sessions of everyone the node concerns: its owner plus the users named in
// its direct and inherited grants.
func (s *Server) logNodeEvent(ctx context.Context, ident models.Identity, eventType string, node *models.Node) {
	payload := map[string]interface{}{
		"node_id":   node.ID,
		"node_type": node.NodeType,
		"name":      node.Name,
		"actor_id":  ident.UserID,
	}

	if err := s.store.LogEvent(ctx, ident.UserID, eventType, payload); err != nil {
		log.Printf("WARN: Failed to log event %s for node %s: %v", eventType, node.ID, err)
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"event_type": eventType,
		"payload":    payload,
	})
	if err != nil {
		return
	}

	recipients := []int64{node.OwnerID, ident.UserID}
	for _, grant := range append(node.Shares, node.InheritedShares...) {
		if grant.UserID != nil {
			recipients = append(recipients, *grant.UserID)
		}
	}
	s.wsHub.PublishToUsers(recipients, data)
}
