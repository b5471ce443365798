package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// httpSink adapts an http.ResponseWriter to the manager's download sink.
// Headers go out on the first Begin call; after that the response is a plain
// byte stream.
type httpSink struct {
	w http.ResponseWriter
}

func (h *httpSink) Write(p []byte) (int, error) {
	return h.w.Write(p)
}

func (h *httpSink) BeginFile(name, contentType string, size int64, inline bool, etag string) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	h.w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	h.w.Header().Set("Content-Type", contentType)
	if size >= 0 {
		h.w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	}
	if etag != "" {
		h.w.Header().Set("ETag", fmt.Sprintf("%q", etag))
	}
	h.w.WriteHeader(http.StatusOK)
}

func (h *httpSink) BeginArchive(name string) {
	h.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	h.w.Header().Set("Content-Type", "application/zip")
	h.w.WriteHeader(http.StatusOK)
}

func (h *httpSink) NotModified(etag string) {
	h.w.Header().Set("ETag", fmt.Sprintf("%q", etag))
	h.w.WriteHeader(http.StatusNotModified)
}

func clientETag(r *http.Request) string {
	return strings.Trim(r.Header.Get("If-None-Match"), `"`)
}

// @Summary      Download a node
// @Description  Streams a file directly, or a folder as a zip of its live subtree. Inline-displayable files honor If-None-Match and answer 304 when the content is unchanged.
// @Tags         downloads
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        nodeId         path    string  true   "Node id"
// @Param        If-None-Match  header  string  false  "Validator token from a previous download"
// @Success      200  {file}    file
// @Failure      304  {string}  string "Not Modified"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/{nodeId}/download [get]
func (s *Server) DownloadNodeHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())
	nodeID := chi.URLParam(r, "nodeId")

	sink := &httpSink{w: w}
	if err := s.manager.DownloadFile(r.Context(), nodeID, ident, clientETag(r), sink); err != nil {
		writeManagerError(w, err, "Failed to download node")
	}
}

// @Summary      Download a set of nodes as one archive
// @Description  Resolves every id (duplicates collapse to one) and streams a combined zip with folders expanded to their live subtrees. A single resolved file is streamed directly. All ids must resolve or the request fails with 404 before any bytes are written.
// @Tags         downloads
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        ids  query     string  true  "Comma-separated node ids"
// @Success      200  {file}    file
// @Failure      400  {string}  string "Bad Request"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "Not Found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /nodes/archive [get]
func (s *Server) DownloadArchiveHandler(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentityFromContext(r.Context())

	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		http.Error(w, "Query parameter 'ids' is required", http.StatusBadRequest)
		return
	}
	ids := strings.Split(idsParam, ",")

	sink := &httpSink{w: w}
	if err := s.manager.DownloadFiles(r.Context(), ids, ident, clientETag(r), sink); err != nil {
		writeManagerError(w, err, "Failed to build archive")
	}
}
