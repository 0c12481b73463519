package services

// AuthContext is the caller identity proven by the transport layer. It is
// passed explicitly into every operation that needs authorization.
type AuthContext struct {
	Identity string
	Role     string
}

const RoleAdmin = "admin"

func (a AuthContext) RequireAuthorizedAs(identity string) error {
	if a.Identity == "" || identity == "" || a.Identity != identity {
		return ErrUnauthorized
	}
	return nil
}

func (a AuthContext) IsAdmin() bool {
	return a.Identity != "" && a.Role == RoleAdmin
}
