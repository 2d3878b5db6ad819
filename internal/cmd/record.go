package cmd

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/progate/internal/gateway"
	"github.com/felixgeelhaar/progate/internal/session"
)

// Recent-activity entries are written by the commands, after the gateway
// call succeeds. The gateway itself only writes tokens and the profile.

func recordCheckIn(ctx context.Context, s *session.Store, code string) {
	s.AddActivity(ctx, session.ActivityScan, "Visitor Checked In", strings.TrimSpace(code))
}

func recordPlateCheck(ctx context.Context, s *session.Store, rec *gateway.VehicleRecord) {
	s.AddActivity(ctx, session.ActivityVehicle, "Vehicle Checked", rec.PlateNumber+" • "+string(rec.Status))
}

func recordAlertUpdate(ctx context.Context, s *session.Store, id string, status gateway.AlertStatus) {
	s.AddActivity(ctx, session.ActivityAlert, "Alert Updated", id+" • "+string(status))
}

// recordingAlerts is the dashboard's alert source; status changes made from
// the dashboard are logged like `alerts update`.
type recordingAlerts struct {
	*gateway.Client
	session *session.Store
}

func (r recordingAlerts) UpdateAlertStatus(ctx context.Context, id string, status gateway.AlertStatus) (*gateway.Alert, error) {
	alert, err := r.Client.UpdateAlertStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	recordAlertUpdate(ctx, r.session, id, status)
	return alert, nil
}
