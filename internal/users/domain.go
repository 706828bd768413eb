package users

// User represents a managed user account.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// CreateInput carries the fields required to register a user.
type CreateInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// UpdateInput carries the fields to overwrite on an existing user.
// Nil fields keep their stored value.
type UpdateInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// IsEmpty reports whether the input overwrites nothing.
func (in UpdateInput) IsEmpty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Email == nil
}

// apply copies the present fields onto user.
func (in UpdateInput) apply(user *User) {
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
}
