package mutation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openboard-dev/openboard/pkg/authz"
	"github.com/openboard-dev/openboard/pkg/hierarchy"
	"github.com/openboard-dev/openboard/pkg/httputil"
	"github.com/openboard-dev/openboard/pkg/membership"
	"github.com/openboard-dev/openboard/pkg/revision"
)

// ErrInvalidChange indicates the change set failed structural validation,
// e.g. a task referencing a status from a different board.
var ErrInvalidChange = errors.New("invalid change")

// AccessDeniedError wraps a denying authorization decision so callers can
// distinguish "not a member" from "insufficient role" when rendering the
// response.
type AccessDeniedError struct {
	Decision authz.Decision
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Decision)
}

// Hidden reports whether the denial must be rendered as "not found".
// Non-members never learn whether the resource exists.
func (e *AccessDeniedError) Hidden() bool {
	return e.Decision.Reason == authz.DenyNotAMember
}

// WriteError renders a mutation error as a JSON response. Anything mapped to
// 404 gets a bare "not found" body so the response never reveals whether the
// resource exists; 500s hide the internal error text.
func WriteError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	switch status {
	case http.StatusNotFound:
		message = "not found"
	case http.StatusInternalServerError:
		message = "internal error"
	}
	httputil.WriteErrorMessage(w, status, message)
}

// HTTPStatus maps a mutation error to a response status. Membership denials
// map to 404 alongside genuine not-found so the two are indistinguishable
// from outside the workspace.
func HTTPStatus(err error) int {
	var denied *AccessDeniedError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &denied):
		if denied.Hidden() {
			return http.StatusNotFound
		}
		return http.StatusForbidden
	case errors.Is(err, hierarchy.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, membership.ErrNotAMember):
		return http.StatusNotFound
	case errors.Is(err, membership.ErrInvitationNotFound):
		return http.StatusNotFound
	case errors.Is(err, membership.ErrInvitationExpired):
		return http.StatusGone
	case errors.Is(err, membership.ErrLastOwner):
		return http.StatusConflict
	case errors.Is(err, membership.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, revision.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidChange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
