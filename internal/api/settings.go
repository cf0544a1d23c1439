package api

import "context"

// GetSettings fetches the service-side recognition settings.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	return doGetJSON[Settings](ctx, c, "settings")
}

// UpdateSettings replaces the service-side recognition settings. Admin only.
func (c *Client) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.ID == "" {
		settings.ID = "default"
	}
	_, err := doPutJSON[map[string]string](ctx, c, "settings", settings)
	return err
}
