package user

import "errors"

var (
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
	ErrInvalidActorClaims     = errors.New("actor claims missing or invalid")
)
