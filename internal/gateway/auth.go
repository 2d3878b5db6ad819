package gateway

import (
	"context"
	"strings"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
	"github.com/felixgeelhaar/progate/internal/session"
)

// Login authenticates the operator and persists the session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, gerrors.NewMissingCredentialsError()
	}

	var resp LoginResponse
	if _, err := c.call(ctx, opLogin, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		c.metrics.ObserveLogin(false)
		return nil, err
	}

	if resp.AccessToken != "" {
		if err := c.session.SaveToken(ctx, resp.AccessToken); err != nil {
			return nil, persistError("access token", err)
		}
	}
	if resp.RefreshToken != "" {
		if err := c.session.SaveRefreshToken(ctx, resp.RefreshToken); err != nil {
			return nil, persistError("refresh token", err)
		}
	}
	user := session.User{
		ID:            resp.UserID,
		Role:          resp.Role,
		EstateID:      resp.EstateID,
		EstateName:    resp.EstateName,
		EstateLogoURL: resp.EstateLogoURL,
	}
	if err := c.session.SaveUser(ctx, user); err != nil {
		return nil, persistError("user profile", err)
	}

	c.metrics.ObserveLogin(true)
	c.logger.Info("operator logged in", "user_id", resp.UserID, "estate_id", resp.EstateID, "role", resp.Role)
	return &resp, nil
}

// RefreshToken exchanges the stored refresh token for a new access token.
// Without a stored refresh token it fails before any network call.
func (c *Client) RefreshToken(ctx context.Context) (*RefreshResponse, error) {
	return c.refresh(ctx, "manual")
}

// Logout clears the local session. Preferences survive.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.Clear(ctx); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStoreBackend, "failed to clear session", err)
	}
	c.logger.Info("operator logged out")
	return nil
}

// refresh coalesces concurrent refreshes into one /auth/refresh call. The
// shared call outlives any single caller and is bounded by refreshTimeout;
// each caller stops waiting when its own context is done.
func (c *Client) refresh(ctx context.Context, trigger string) (*RefreshResponse, error) {
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		resp, err := c.doRefresh(rctx)
		c.metrics.ObserveRefresh(trigger, err == nil)
		return resp, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("shared in-flight token refresh", "trigger", trigger)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*RefreshResponse), nil
	}
}

func (c *Client) doRefresh(ctx context.Context) (*RefreshResponse, error) {
	refreshToken := c.session.RefreshToken(ctx)
	if refreshToken == "" {
		return nil, gerrors.NewNoRefreshTokenError()
	}

	var resp RefreshResponse
	if _, err := c.call(ctx, opRefresh, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken != "" {
		if err := c.session.SaveToken(ctx, resp.AccessToken); err != nil {
			return nil, persistError("access token", err)
		}
	}
	if resp.RefreshToken != "" && resp.RefreshToken != refreshToken {
		if err := c.session.SaveRefreshToken(ctx, resp.RefreshToken); err != nil {
			return nil, persistError("refresh token", err)
		}
	}

	c.logger.Debug("access token refreshed", "rotated", resp.RefreshToken != "" && resp.RefreshToken != refreshToken)
	return &resp, nil
}

// refreshIfExpired refreshes ahead of a request whose JWT has expired.
// Failures are logged; the request proceeds with the current token.
func (c *Client) refreshIfExpired(ctx context.Context) {
	token := c.session.Token(ctx)
	if token == "" || !TokenExpired(token, c.now()) {
		return
	}
	if c.session.RefreshToken(ctx) == "" {
		return
	}
	if _, err := c.refresh(ctx, "expired"); err != nil {
		c.logger.WithError(err).Warn("proactive token refresh failed")
	}
}

func persistError(what string, err error) error {
	return gerrors.Wrap(gerrors.ErrCodeStoreBackend, "failed to persist "+what, err)
}
