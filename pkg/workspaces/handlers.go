package workspaces

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/openboard-dev/openboard/pkg/contextkeys"
	"github.com/openboard-dev/openboard/pkg/httputil"
	"github.com/openboard-dev/openboard/pkg/membership"
	"github.com/openboard-dev/openboard/pkg/mutation"
)

// Handler exposes the workspace service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates an HTTP handler for workspaces.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers workspace routes on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/workspaces", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/workspaces/{id:[0-9]+}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/workspaces/{id:[0-9]+}", h.Update).Methods(http.MethodPatch)
	r.HandleFunc("/workspaces/{id:[0-9]+}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/workspaces/{id:[0-9]+}/history", h.History).Methods(http.MethodGet)

	r.HandleFunc("/workspaces/{id:[0-9]+}/members", h.ListMembers).Methods(http.MethodGet)
	r.HandleFunc("/workspaces/{id:[0-9]+}/members", h.AddMember).Methods(http.MethodPost)
	r.HandleFunc("/workspaces/{id:[0-9]+}/members/{actor_id:[0-9]+}", h.SetMemberRole).Methods(http.MethodPut)
	r.HandleFunc("/workspaces/{id:[0-9]+}/members/{actor_id:[0-9]+}", h.RemoveMember).Methods(http.MethodDelete)

	r.HandleFunc("/workspaces/{id:[0-9]+}/invitations", h.Invite).Methods(http.MethodPost)
	r.HandleFunc("/workspaces/{id:[0-9]+}/invitations", h.ListInvitations).Methods(http.MethodGet)
	r.HandleFunc("/invitations/{token}/accept", h.AcceptInvitation).Methods(http.MethodPost)
}

type createWorkspaceRequest struct {
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields,omitempty"`
}

type createWorkspaceResponse struct {
	Resource   any `json:"resource"`
	Revision   any `json:"revision"`
	Membership any `json:"membership"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createWorkspaceRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	result, member, err := h.service.Create(r.Context(), actorID, req.Name, req.Fields)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, createWorkspaceResponse{
		Resource:   result.Resource,
		Revision:   result.Revision,
		Membership: member,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	res, err := h.service.Get(r.Context(), actorID, workspaceID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, res)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.service.Update(r.Context(), actorID, workspaceID, change)
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
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actorID, workspaceID); err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	revisions, err := h.service.History(r.Context(), actorID, workspaceID, limit)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, revisions)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	members, err := h.service.ListMembers(r.Context(), actorID, workspaceID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, members)
}

type memberRequest struct {
	ActorID int64           `json:"actor_id"`
	Role    membership.Role `json:"role"`
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req memberRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.ActorID, "actor_id") {
		return
	}

	member, err := h.service.AddMember(r.Context(), actorID, workspaceID, req.ActorID, req.Role)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, member)
}

func (h *Handler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	targetID, ok := httputil.ParsePathInt64OrError(w, r, "actor_id")
	if !ok {
		return
	}
	var req struct {
		Role membership.Role `json:"role"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := h.service.SetMemberRole(r.Context(), actorID, workspaceID, targetID, req.Role); err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	targetID, ok := httputil.ParsePathInt64OrError(w, r, "actor_id")
	if !ok {
		return
	}

	if err := h.service.RemoveMember(r.Context(), actorID, workspaceID, targetID); err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type inviteRequest struct {
	Email      string          `json:"email"`
	Role       membership.Role `json:"role"`
	TTLSeconds int64           `json:"ttl_seconds,omitempty"`
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	var req inviteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	inv, err := h.service.Invite(r.Context(), actorID, workspaceID, req.Email, req.Role, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, inv)
}

func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	workspaceID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	invitations, err := h.service.ListInvitations(r.Context(), actorID, workspaceID)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, invitations)
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	token, ok := httputil.ParsePathStringOrError(w, r, "token")
	if !ok {
		return
	}

	inv, err := h.service.AcceptInvitation(r.Context(), actorID, token)
	if err != nil {
		mutation.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, inv)
}

// requireActor pulls the authenticated actor from the context, rejecting the
// request if the actor middleware did not run.
func requireActor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actorID, ok := contextkeys.GetActorID(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return 0, false
	}
	return actorID, true
}
