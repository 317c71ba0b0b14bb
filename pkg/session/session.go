// Package session issues and verifies access tokens and carries auth-state
// notifications between instances.
package session

import (
	"github.com/google/uuid"
)

// Session is the resolved identity of a request. Flows receive it explicitly.
type Session struct {
	UserId         uuid.UUID
	OrganizationId uuid.UUID
	Email          string
	TokenId        string
}
