// Package httputil provides the JSON request and response helpers shared by
// the workspace, board, and task handlers.
//
// # Overview
//
// Handlers parse ids and bodies through this package and render results and
// errors through it, so every endpoint speaks the same JSON shapes. Mutation
// errors take a different path: mutation.WriteError maps the error taxonomy
// to a status and masks hidden resources before delegating here.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, resource)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteNoContent(w)
//
// Error responses:
//
//	httputil.WriteErrorMessage(w, http.StatusConflict, "workspace must retain at least one owner")
//	httputil.WriteBadRequest(w, "invalid JSON")
//	httputil.WriteUnauthorized(w, "missing actor identity")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req createBoardRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters:
//
//	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
//	kind, ok := httputil.ParsePathStringOrError(w, r, "kind")
//
// Query parameters:
//
//	limit, err := httputil.ParseQueryInt(r, "limit", 50)
//
// # Validation
//
//	if !httputil.RequireNonEmpty(w, req.Name, "name") {
//		return
//	}
//	if !httputil.RequirePositive(w, req.BoardID, "board_id") {
//		return
//	}
//
// # Related Packages
//
//   - pkg/middleware: actor identity, logging, and rate limiting middleware
//   - pkg/mutation: error taxonomy and status mapping for mutation errors
package httputil
