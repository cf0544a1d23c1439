package api

import "context"

// Users lists all registered identities. Admin only.
func (c *Client) Users(ctx context.Context) ([]Identity, error) {
	users, err := doGetJSON[[]Identity](ctx, c, "users")
	if err != nil {
		return nil, err
	}
	return *users, nil
}

// DeleteUser removes a user record. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := doDeleteJSON[map[string]string](ctx, c, "users/"+id)
	return err
}
