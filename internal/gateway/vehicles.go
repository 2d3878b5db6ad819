package gateway

import (
	"context"
	"net/url"
	"strings"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

// CheckPlate looks up a plate. An unregistered plate is a successful
// response with status UNKNOWN, not an error.
func (c *Client) CheckPlate(ctx context.Context, plate string) (*VehicleRecord, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, gerrors.NewInvalidInputError("Please enter a plate number")
	}

	var record VehicleRecord
	if _, err := c.call(ctx, opCheckPlate, "/vehicles/check/"+url.PathEscape(plate), nil, &record); err != nil {
		return nil, err
	}
	if record.Status == "" {
		record.Status = VehicleUnknown
	}

	c.metrics.ObserveGateCheck("vehicle", string(record.Status))
	return &record, nil
}
