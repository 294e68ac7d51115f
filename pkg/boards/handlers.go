package boards

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openboard-dev/openboard/pkg/contextkeys"
	"github.com/openboard-dev/openboard/pkg/httputil"
	"github.com/openboard-dev/openboard/pkg/mutation"
)

// Handler exposes the board service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates an HTTP handler for boards.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers board routes on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/workspaces/{id:[0-9]+}/boards", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/workspaces/{id:[0-9]+}/boards", h.List).Methods(http.MethodGet)
	r.HandleFunc("/boards/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/boards/{id:[0-9]+}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/boards/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/boards/{id:[0-9]+}/move", h.Move).Methods(http.MethodPost)
	r.HandleFunc("/boards/{id:[0-9]+}/history", h.History).Methods(http.MethodGet)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var change mutation.ChangeSet
	if !httputil.ParseJSONOrError(w, r, &change) {
		return
	}
	if change.Name == nil || *change.Name == "" {
		httputil.WriteValidationError(w, "name is required")
		return
	}

	result, err := h.service.Create(r.Context(), actorID, workspaceID, change)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, result)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	boards, err := h.service.List(r.Context(), actorID, workspaceID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, boards)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	board, err := h.service.Get(r.Context(), actorID, boardID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, board)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var change mutation.ChangeSet
	if !httputil.ParseJSONOrError(w, r, &change) {
		return
	}

	result, err := h.service.Update(r.Context(), actorID, boardID, change)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actorID, boardID); err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type moveRequest struct {
	WorkspaceID int64 `json:"workspace_id"`
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req moveRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.WorkspaceID, "workspace_id") {
		return
	}

	result, err := h.service.Move(r.Context(), actorID, boardID, req.WorkspaceID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	boardID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	revisions, err := h.service.History(r.Context(), actorID, boardID, limit)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, revisions)
}

func requireActor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actorID, ok := contextkeys.GetActorID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return 0, false
	}
	return actorID, true
}
