package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/felixgeelhaar/progate/internal/errors"
)

func TestLoadSchema(t *testing.T) {
	v, err := loadSchema()
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.NoError(t, v.validate(http.MethodGet, "/vehicles/check/{plate_number}", 200,
		[]byte(`{"plate_number":"ABC","status":"DENIED","make_model":null,"owner":"x"}`)))
	assert.Error(t, v.validate(http.MethodGet, "/vehicles/check/{plate_number}", 200,
		[]byte(`{"plate_number":"ABC","status":"MAYBE"}`)))
	assert.Error(t, v.validate(http.MethodGet, "/alerts/", 200, []byte(`{"message":"x"}`)))
	assert.NoError(t, v.validate(http.MethodGet, "/unknown", 200, []byte(`{}`)))
	assert.NoError(t, v.validate(http.MethodGet, "", 200, []byte(`{}`)))
}

func TestParseValidationMode(t *testing.T) {
	for in, want := range map[string]ValidationMode{"off": ValidationOff, "WARN": ValidationWarn, " strict ": ValidationStrict, "": ValidationWarn} {
		got, err := ParseValidationMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseValidationMode("loud")
	assert.Error(t, err)
}

func plateHandler(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"plate_number": "ABC", "status": status})
	}
}

func TestSchemaValidation_Strict(t *testing.T) {
	env := newTestEnv(t, plateHandler("MAYBE"), func(c *Config) { c.ValidateResponses = ValidationStrict })

	_, err := env.client.CheckPlate(context.Background(), "ABC")
	require.Error(t, err)
	assert.True(t, gerrors.HasCode(err, gerrors.ErrCodeSchemaViolation))
	assert.Empty(t, env.store.Activity(context.Background()))
}

func TestSchemaValidation_WarnPassesThrough(t *testing.T) {
	env := newTestEnv(t, plateHandler("MAYBE"), func(c *Config) { c.ValidateResponses = ValidationWarn })

	record, err := env.client.CheckPlate(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, VehicleStatus("MAYBE"), record.Status)
}

func TestSchemaValidation_StrictAcceptsValid(t *testing.T) {
	env := newTestEnv(t, plateHandler("APPROVED"), func(c *Config) { c.ValidateResponses = ValidationStrict })

	record, err := env.client.CheckPlate(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, VehicleApproved, record.Status)
}
