package strapi

import (
	"context"
	"fmt"
)

// Credentials are the sign-in form values.
type Credentials struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Registration are the sign-up form values.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewUser is the body of the admin create-user form.
type NewUser struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          int    `json:"role"`
	RecommenderID string `json:"recommenderId"`
	Confirmed     bool   `json:"confirmed"`
}

// ProfileUpdate is the body of a profile update.
type ProfileUpdate struct {
	Username           string `json:"username"`
	Email              string `json:"email,omitempty"`
	Name               string `json:"name"`
	Surname            string `json:"surname"`
	ResidentialAddress string `json:"residentialAddress"`
	RecommenderID      string `json:"recommenderId,omitempty"`
}

// SignIn exchanges credentials for a token.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	const path = "/auth/local"
	var resp AuthResponse
	if err := c.Post(ctx, path, creds, &resp); err != nil {
		return nil, err
	}
	if err := c.check(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	const path = "/auth/local/register"
	var resp AuthResponse
	if err := c.Post(ctx, path, reg, &resp); err != nil {
		return nil, err
	}
	if err := c.check(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the signed-in user including its role.
func (c *Client) Me(ctx context.Context, opts ...RequestOption) (*User, error) {
	return c.getUser(ctx, "/users/me?populate=role", opts...)
}

// MeWithDashboard returns the signed-in user including the dashboard and its deposits.
func (c *Client) MeWithDashboard(ctx context.Context, opts ...RequestOption) (*User, error) {
	return c.getUser(ctx, "/users/me?populate[dashboard][populate]=deposits", opts...)
}

func (c *Client) getUser(ctx context.Context, path string, opts ...RequestOption) (*User, error) {
	var user User
	if err := c.Get(ctx, path, &user, opts...); err != nil {
		return nil, err
	}
	if err := c.check(path, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users with their roles.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	const path = "/users?populate=role"
	var list struct {
		Users []User `validate:"dive"`
	}
	if err := c.Get(ctx, path, &list.Users); err != nil {
		return nil, err
	}
	if err := c.check(path, &list); err != nil {
		return nil, err
	}
	return list.Users, nil
}

// CreateUser creates a user from the admin form.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (*User, error) {
	const path = "/users"
	var user User
	if err := c.Post(ctx, path, u, &user); err != nil {
		return nil, err
	}
	if err := c.check(path, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates the profile fields of a user.
func (c *Client) UpdateUser(ctx context.Context, id int, update ProfileUpdate) (*User, error) {
	path := fmt.Sprintf("/users/%d", id)
	var user User
	if err := c.Put(ctx, path, update, &user); err != nil {
		return nil, err
	}
	if err := c.check(path, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.Delete(ctx, fmt.Sprintf("/users/%d", id), nil)
}

// Roles returns the users-permissions roles.
func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	const path = "/users-permissions/roles"
	var resp struct {
		Roles []Role `json:"roles" validate:"dive"`
	}
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if err := c.check(path, &resp); err != nil {
		return nil, err
	}
	return resp.Roles, nil
}
