package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type CreateFolderRequest struct {
	Name     string  `json:"name" example:"Dokumenty"`
	ParentID *string `json:"parent_id"`
}

func cleanParentID(w http.ResponseWriter, parentID *string) (*string, bool) {
	if parentID == nil || *parentID == "" {
		return nil, true
	}
	if len(*parentID) != 21 {
		http.Error(w, "Invalid ParentID format", http.StatusBadRequest)
		return nil, false
	}
	return parentID, true
}

// @Summary      Create a folder
// @Description  Creates a folder under the given parent (or at root level). The folder starts with the parent's merged grants as its inherited shares.
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        createFolderRequest  body      CreateFolderRequest  true  "Folder details"
// @Success      201  {object}  models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/folder [post]
func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())

	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Folder name cannot be empty", http.StatusBadRequest)
		return
	}

	parentID, ok := cleanParentID(w, req.ParentID)
	if !ok {
		return
	}

	node, err := s.manager.CreateFolder(r.Context(), parentID, req.Name, ident)
	if err != nil {
		writeManagerError(w, err, "Failed to create folder")
		return
	}

	s.logNodeEvent(r.Context(), ident, "node_created", node)
	writeJSON(w, http.StatusCreated, node)
}

// @Summary      Upload a file
// @Description  Stores the uploaded content and creates a FILE node under the given parent. The node inherits the parent's grants.
// @Tags         nodes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file       formData  file    true   "File content"
// @Param        parent_id  formData  string  false  "Destination folder id"
// @Param        application formData string  false  "Producer application tag"
// @Success      201  {object}  models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/file [post]
func (s *Server) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<30)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing multipart form", http.StatusBadRequest)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error retrieving the file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	parentIDStr := r.FormValue("parent_id")
	var parentID *string
	if parentIDStr != "" {
		parentID = &parentIDStr
	}
	parentID, ok := cleanParentID(w, parentID)
	if !ok {
		return
	}

	contentType := handler.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	application := r.FormValue("application")
	if application == "" {
		application = "workspace"
	}

	node, err := s.manager.ImportFile(r.Context(), parentID, handler.Filename, contentType, handler.Size, application, file, ident)
	if err != nil {
		writeManagerError(w, err, "Failed to store file")
		return
	}

	s.logNodeEvent(r.Context(), ident, "node_created", node)
	writeJSON(w, http.StatusCreated, node)
}

// @Summary      List nodes
// @Description  Lists the visible children of a folder, or the visible root level when parent_id is omitted. Folders come before files.
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        parent_id  query     string  false  "Folder id to list; omit for root level"
// @Success      200  {array}   models.Node
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes [get]
func (s *Server) ListNodesHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())

	parentIDStr := r.URL.Query().Get("parent_id")
	var parentID *string
	if parentIDStr != "" {
		parentID = &parentIDStr
	}

	nodes, err := s.manager.List(r.Context(), parentID, ident)
	if err != nil {
		writeManagerError(w, err, "Failed to list nodes")
		return
	}

	writeJSON(w, http.StatusOK, nodes)
}

// @Summary      List a subtree
// @Description  Returns every visible node. With root_id, returns that folder and its entire visible subtree in depth order.
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        root_id  query     string  false  "Folder to start from; omit for the whole visible forest"
// @Success      200  {array}   models.Node
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/tree [get]
func (s *Server) ListTreeHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())

	rootID := r.URL.Query().Get("root_id")

	var nodes interface{}
	var err error
	if rootID == "" {
		nodes, err = s.manager.ListRecursively(r.Context(), ident)
	} else {
		nodes, err = s.manager.ListRecursivelyFrom(r.Context(), rootID, ident)
	}
	if err != nil {
		writeManagerError(w, err, "Failed to list subtree")
		return
	}

	writeJSON(w, http.StatusOK, nodes)
}

// @Summary      Get node metadata
// @Tags         nodes
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node id"
// @Success      200  {object}  models.Node
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId} [get]
func (s *Server) NodeInfoHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	node, err := s.manager.Info(r.Context(), nodeID, ident)
	if err != nil {
		writeManagerError(w, err, "Failed to retrieve node")
		return
	}

	writeJSON(w, http.StatusOK, node)
}

type UpdateNodeRequest struct {
	Name     *string `json:"name"`
	ParentID *string `json:"parent_id"`
	ToRoot   bool    `json:"to_root"`
}

// @Summary      Rename or move a node
// @Description  Renames the node, moves it under a new parent, or both. Moving recomputes inherited shares for the node and its whole subtree against the new ancestor chain. Use to_root to move to root level.
// @Tags         nodes
// @Accept       json
// @Security     BearerAuth
// @Param        nodeId             path  string             true  "Node id"
// @Param        updateNodeRequest  body  UpdateNodeRequest  true  "Update details"
// @Success      200  {string}  string "OK"
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId} [patch]
func (s *Server) UpdateNodeHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var updated bool

	if req.Name != nil {
		newName := strings.TrimSpace(*req.Name)
		if newName == "" {
			http.Error(w, "Name cannot be empty", http.StatusBadRequest)
			return
		}

		if err := s.manager.Rename(r.Context(), nodeID, newName, ident); err != nil {
			writeManagerError(w, err, "Failed to rename node")
			return
		}
		updated = true
	}

	if req.ParentID != nil || req.ToRoot {
		newParentID, ok := cleanParentID(w, req.ParentID)
		if !ok {
			return
		}

		previous, err := s.manager.Move(r.Context(), nodeID, newParentID, ident)
		if err != nil {
			writeManagerError(w, err, "Failed to move node")
			return
		}
		s.logNodeEvent(r.Context(), ident, "node_moved", previous)
		updated = true
	}

	if !updated {
		http.Error(w, "No update operation specified (provide 'name', 'parent_id' or 'to_root')", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type CopyNodeRequest struct {
	DestFolderID *string `json:"dest_folder_id"`
}

// @Summary      Copy a node
// @Description  Copies a file, or a folder with its entire live subtree, into the destination folder (root level when omitted). Every blob is duplicated; inherited shares are recomputed against the destination chain. Returns the flat list of created copies.
// @Tags         nodes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId           path  string           true  "Node id to copy"
// @Param        copyNodeRequest  body  CopyNodeRequest  true  "Destination"
// @Success      201  {array}   models.Node
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId}/copy [post]
func (s *Server) CopyNodeHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	var req CopyNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	destID, ok := cleanParentID(w, req.DestFolderID)
	if !ok {
		return
	}

	copies, err := s.manager.Copy(r.Context(), nodeID, destID, ident)
	if err != nil {
		writeManagerError(w, err, "Failed to copy node")
		return
	}

	if len(copies) > 0 {
		s.logNodeEvent(r.Context(), ident, "node_copied", &copies[0])
	}
	writeJSON(w, http.StatusCreated, copies)
}
