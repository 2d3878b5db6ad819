package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

// ListAlerts returns the estate's panic alerts.
func (c *Client) ListAlerts(ctx context.Context) ([]Alert, error) {
	raw, err := c.call(ctx, opListAlerts, "/alerts/", nil, nil)
	if err != nil {
		return nil, err
	}

	// an empty body normalizes to {}; treat it as no alerts
	if bytes.Equal(bytes.TrimSpace(raw), []byte(`{}`)) {
		return []Alert{}, nil
	}

	var alerts []Alert
	if err := json.Unmarshal(raw, &alerts); err != nil {
		c.metrics.ObserveRequestError(opListAlerts.name, "decode")
		return nil, gerrors.Wrap(gerrors.ErrCodeDecodeResponse, "failed to decode list_alerts response", err)
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

// UpdateAlertStatus moves an alert to RESPONDING or RESOLVED. Other statuses
// are rejected before any network call.
func (c *Client) UpdateAlertStatus(ctx context.Context, id string, status AlertStatus) (*Alert, error) {
	if status != AlertResponding && status != AlertResolved {
		return nil, gerrors.NewInvalidAlertStatusError(string(status))
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, gerrors.NewInvalidInputError("alert id is required")
	}

	var alert Alert
	if _, err := c.call(ctx, opUpdateAlert, "/alerts/"+url.PathEscape(id), alertStatusUpdate{Status: status}, &alert); err != nil {
		return nil, err
	}

	return &alert, nil
}

// ParseAlertStatus accepts an alert status name in any case.
func ParseAlertStatus(s string) (AlertStatus, error) {
	switch st := AlertStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case AlertActive, AlertResponding, AlertResolved:
		return st, nil
	default:
		return "", gerrors.NewInvalidAlertStatusError(s)
	}
}
