package gateway

import (
	"context"
	"net/url"
	"strings"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

// VerifyCode checks a visitor access code without checking the visitor in.
func (c *Client) VerifyCode(ctx context.Context, code string) (*AccessVerificationResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, gerrors.NewInvalidInputError("Please enter an access code")
	}

	var result AccessVerificationResult
	if _, err := c.call(ctx, opVerifyCode, "/access/verify?code="+url.QueryEscape(code), nil, &result); err != nil {
		return nil, err
	}

	outcome := "invalid"
	if result.Valid {
		outcome = "valid"
	}
	c.metrics.ObserveGateCheck("access_code", outcome)
	return &result, nil
}

// CheckIn admits the visitor holding code and returns the server ack.
func (c *Client) CheckIn(ctx context.Context, code string) (*CheckInResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, gerrors.NewInvalidInputError("Please enter an access code")
	}

	var result CheckInResult
	raw, err := c.call(ctx, opCheckIn, "/access/check-in?code="+url.QueryEscape(code), nil, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw

	c.metrics.ObserveGateCheck("check_in", "admitted")
	return &result, nil
}
