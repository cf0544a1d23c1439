package api

import "context"

// Login authenticates with username and password. On success the returned
// credential is attached to the client for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	result, err := doPostJSON[AuthResult](ctx, c, "auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	c.token = result.Credential
	return result, nil
}

// FaceLogin authenticates with a captured face image (base64 data URL).
// A no-match result is an auth failure, not a partial success.
func (c *Client) FaceLogin(ctx context.Context, faceImage string) (*AuthResult, error) {
	result, err := doPostJSON[AuthResult](ctx, c, "auth/face-login", map[string]string{
		"face_image": faceImage,
	})
	if err != nil {
		return nil, err
	}
	c.token = result.Credential
	return result, nil
}

// CurrentIdentity resolves the identity behind the attached credential.
// A credential-invalid failure is reported as an auth error.
func (c *Client) CurrentIdentity(ctx context.Context) (*Identity, error) {
	return doGetJSON[Identity](ctx, c, "users/me")
}

// Register creates a new account and returns the created identity. Field
// validation failures carry the service's field-level reason.
func (c *Client) Register(ctx context.Context, user NewUser) (*Identity, error) {
	return doPostJSON[Identity](ctx, c, "auth/register", user)
}

// RegisterFace binds a captured face sample (base64 data URL) to an
// existing identity.
func (c *Client) RegisterFace(ctx context.Context, userID, faceImage string) (*FaceRegisterResult, error) {
	return doPostJSON[FaceRegisterResult](ctx, c, "users/register-face", map[string]string{
		"user_id":    userID,
		"face_image": faceImage,
	})
}

// Logout detaches the credential. The attendance service issues stateless
// bearer tokens, so this is purely client-side and idempotent.
func (c *Client) Logout() {
	c.token = ""
}
