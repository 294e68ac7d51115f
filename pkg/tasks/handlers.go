package tasks

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openboard-dev/openboard/pkg/contextkeys"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/httputil"
	"github.com/openboard-dev/openboard/pkg/mutation"
)

// catalogKinds maps the URL segment to the catalog resource type.
var catalogKinds = map[string]hierarchy.ResourceType{
	"statuses":    hierarchy.TypeTaskStatus,
	"priorities":  hierarchy.TypeTaskPriority,
	"initiatives": hierarchy.TypeTaskInitiative,
}

const kindPattern = "{kind:statuses|priorities|initiatives}"

// Handler exposes the task service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates an HTTP handler for tasks.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers task, catalog, and comment routes on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/boards/{id:[0-9]+}/tasks", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/boards/{id:[0-9]+}/tasks", h.List).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id:[0-9]+}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/tasks/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/tasks/{id:[0-9]+}/move", h.Move).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id:[0-9]+}/history", h.History).Methods(http.MethodGet)

	r.HandleFunc("/boards/{id:[0-9]+}/"+kindPattern, h.CreateCatalogEntry).Methods(http.MethodPost)
	r.HandleFunc("/boards/{id:[0-9]+}/"+kindPattern, h.ListCatalogEntries).Methods(http.MethodGet)
	r.HandleFunc("/"+kindPattern+"/{id:[0-9]+}", h.UpdateCatalogEntry).Methods(http.MethodPatch)
	r.HandleFunc("/"+kindPattern+"/{id:[0-9]+}", h.DeleteCatalogEntry).Methods(http.MethodDelete)

	r.HandleFunc("/tasks/{id:[0-9]+}/comments", h.CreateComment).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id:[0-9]+}/comments", h.ListComments).Methods(http.MethodGet)
	r.HandleFunc("/comments/{id:[0-9]+}", h.UpdateComment).Methods(http.MethodPatch)
	r.HandleFunc("/comments/{id:[0-9]+}", h.DeleteComment).Methods(http.MethodDelete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, boardID, ok := actorAndID(w, r)
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

	result, err := h.service.Create(r.Context(), actorID, boardID, change)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, result)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actorID, boardID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	tasks, err := h.service.List(r.Context(), actorID, boardID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, tasks)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	task, err := h.service.Get(r.Context(), actorID, taskID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, task)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var change mutation.ChangeSet
	if !httputil.ParseJSONOrError(w, r, &change) {
		return
	}

	result, err := h.service.Update(r.Context(), actorID, taskID, change)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actorID, taskID); err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type moveRequest struct {
	BoardID int64 `json:"board_id"`
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.BoardID, "board_id") {
		return
	}

	result, err := h.service.Move(r.Context(), actorID, taskID, req.BoardID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	revisions, err := h.service.History(r.Context(), actorID, taskID, limit)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, revisions)
}

func (h *Handler) CreateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	actorID, boardID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	typ, ok := catalogType(w, r)
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

	result, err := h.service.CreateCatalogEntry(r.Context(), actorID, boardID, typ, change)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, result)
}

func (h *Handler) ListCatalogEntries(w http.ResponseWriter, r *http.Request) {
	actorID, boardID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	typ, ok := catalogType(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListCatalogEntries(r.Context(), actorID, boardID, typ)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, entries)
}

func (h *Handler) UpdateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	actorID, entryID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	typ, ok := catalogType(w, r)
	if !ok {
		return
	}
	var change mutation.ChangeSet
	if !httputil.ParseJSONOrError(w, r, &change) {
		return
	}

	result, err := h.service.UpdateCatalogEntry(r.Context(), actorID, entryID, typ, change)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *Handler) DeleteCatalogEntry(w http.ResponseWriter, r *http.Request) {
	actorID, entryID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	typ, ok := catalogType(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCatalogEntry(r.Context(), actorID, entryID, typ); err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := h.service.CreateComment(r.Context(), actorID, taskID, req.Body)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, result)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	actorID, taskID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	comments, err := h.service.ListComments(r.Context(), actorID, taskID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, comments)
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	actorID, commentID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := h.service.UpdateComment(r.Context(), actorID, commentID, req.Body)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actorID, commentID, ok := actorAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteComment(r.Context(), actorID, commentID); err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// actorAndID pulls the authenticated actor and the id path parameter.
func actorAndID(w http.ResponseWriter, r *http.Request) (actorID, id int64, ok bool) {
	actorID, ok = contextkeys.GetActorID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return 0, 0, false
	}
	id, ok = httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return 0, 0, false
	}
	return actorID, id, true
}

func catalogType(w http.ResponseWriter, r *http.Request) (hierarchy.ResourceType, bool) {
	kind, ok := httputil.ParsePathStringOrError(w, r, "kind")
	if !ok {
		return "", false
	}
	typ, ok := catalogKinds[kind]
	if !ok {
		httputil.WriteBadRequest(w, "unknown catalog kind: "+kind)
		return "", false
	}
	return typ, true
}
