package gateway

import (
	"encoding/json"
	"strings"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	TokenType     string `json:"token_type"`
	UserID        string `json:"user_id"`
	EstateID      string `json:"estate_id"`
	EstateName    string `json:"estate_name,omitempty"`
	EstateLogoURL string `json:"estate_logo_url,omitempty"`
	Role          string `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse is returned by POST /auth/refresh. RefreshToken is set
// only when the server rotates it.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// AccessVerificationResult is returned by POST /access/verify.
type AccessVerificationResult struct {
	Valid        bool   `json:"valid"`
	VisitorName  string `json:"visitor_name,omitempty"`
	ResidentName string `json:"resident_name,omitempty"`
	ValidUntil   string `json:"valid_until,omitempty"`
	Message      string `json:"message,omitempty"`
}

// CheckInResult is the server acknowledgement of POST /access/check-in.
// The payload is not fixed, so the raw body is kept alongside the message.
type CheckInResult struct {
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// VehicleStatus is the gate decision for a plate.
type VehicleStatus string

const (
	VehicleApproved VehicleStatus = "APPROVED"
	VehicleDenied   VehicleStatus = "DENIED"
	VehicleUnknown  VehicleStatus = "UNKNOWN"
)

// UnmarshalJSON maps anything other than APPROVED or DENIED, in any case, to
// UNKNOWN.
func (s *VehicleStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = VehicleUnknown
		return nil
	}
	*s = ParseVehicleStatus(raw)
	return nil
}

// ParseVehicleStatus normalizes a plate decision; unrecognized values are
// UNKNOWN.
func ParseVehicleStatus(s string) VehicleStatus {
	switch st := VehicleStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case VehicleApproved, VehicleDenied:
		return st
	default:
		return VehicleUnknown
	}
}

// VehicleRecord is returned by GET /vehicles/check/{plate}. A missing status
// decodes as UNKNOWN.
type VehicleRecord struct {
	PlateNumber string        `json:"plate_number"`
	Status      VehicleStatus `json:"status"`
	MakeModel   string        `json:"make_model"`
	Owner       string        `json:"owner"`
}

// AlertStatus is the lifecycle state of a panic alert.
type AlertStatus string

const (
	AlertActive     AlertStatus = "ACTIVE"
	AlertResponding AlertStatus = "RESPONDING"
	AlertResolved   AlertStatus = "RESOLVED"
)

// Alert is a panic alert raised by a resident.
type Alert struct {
	ID           string      `json:"id"`
	Type         string      `json:"type"`
	Description  string      `json:"description"`
	ResidentName string      `json:"resident_name"`
	Status       AlertStatus `json:"status"`
	CreatedAt    string      `json:"created_at,omitempty"`
}

type alertStatusUpdate struct {
	Status AlertStatus `json:"status"`
}
