package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
	"github.com/flowforge/flowforge/cmd/designer/respond"
)

const (
	// PermissionKey is the context key for the caller's resolved
	// permission record on the requested workflow
	PermissionKey ContextKey = "workflow_permission"
)

// Authorizer decides whether a user may perform a role-gated action on
// a workflow
type Authorizer interface {
	Authorize(ctx context.Context, userID string, workflowID uuid.UUID, required models.Role) (*models.Permission, error)
}

// RequireWorkflowRole runs the permission gate before the handler. A
// missing or malformed workflow id is a client error (400), distinct
// from a denial (403). On success the permission record is stashed in
// the request context for the handler.
func RequireWorkflowRole(gate Authorizer, required models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idParam := c.Param("id")
			if idParam == "" {
				return respond.Fail(c, http.StatusBadRequest, "workflow ID required")
			}

			workflowID, err := uuid.Parse(idParam)
			if err != nil {
				return respond.Fail(c, http.StatusBadRequest, "invalid workflow ID")
			}

			ident := GetIdentity(c)
			perm, err := gate.Authorize(c.Request().Context(), ident.UserID, workflowID, required)
			if err != nil {
				if apperr.IsKind(err, apperr.KindDenied) {
					return respond.Fail(c, http.StatusForbidden, err.Error())
				}
				return respond.Fail(c, http.StatusInternalServerError, "error checking permissions")
			}

			c.Set(string(PermissionKey), perm)
			return next(c)
		}
	}
}

// GetWorkflowPermission retrieves the permission record resolved by
// RequireWorkflowRole. Returns nil if the gate did not run.
func GetWorkflowPermission(c echo.Context) *models.Permission {
	perm, _ := c.Get(string(PermissionKey)).(*models.Permission)
	return perm
}
