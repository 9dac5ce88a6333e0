package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Status Validation Tests
// ============================================================================

func TestValidStatus_KnownValues(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusInactive, StatusSuspended} {
		assert.True(t, ValidStatus(s), "expected %q to be valid", s)
	}
}

func TestValidStatus_Invalid(t *testing.T) {
	assert.False(t, ValidStatus("unknown"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("ACTIVE"))
	assert.False(t, ValidStatus("deleted"))
}

// ============================================================================
// User Struct Tests
// ============================================================================

func TestUser_PasswordHashExcludedFromJSON(t *testing.T) {
	u := User{ID: 1, Email: "a@b.com", PasswordHash: "secret"}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), "a@b.com")
}

func TestUser_IsGoogleAccount(t *testing.T) {
	assert.True(t, (&User{}).IsGoogleAccount())
	assert.False(t, (&User{PasswordHash: "$2a$12$abc"}).IsGoogleAccount())
}

func TestUser_OptionalFieldsOmitted(t *testing.T) {
	u := User{ID: 1, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Status: StatusActive}
	data, err := json.Marshal(u)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	_, hasPhone := raw["phone_number"]
	assert.False(t, hasPhone, "phone_number should be omitted when empty")
	_, hasCity := raw["city"]
	assert.False(t, hasCity, "city should be omitted when empty")
}

// ============================================================================
// Rental Tests
// ============================================================================

func TestRental_UnmarshalKeepsRawPayload(t *testing.T) {
	payload := `{"rental_id":5,"user_id":9,"unit_size":"10x10","monthly_rate":120.5}`
	var r Rental
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, int64(5), r.ID)
	assert.Equal(t, int64(9), r.UserID)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(out))
}

func TestRental_MarshalWithoutRaw(t *testing.T) {
	r := Rental{ID: 3, UserID: 7}
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rental_id":3,"user_id":7}`, string(out))
}

func TestRental_UnmarshalInvalid(t *testing.T) {
	var r Rental
	assert.Error(t, json.Unmarshal([]byte(`{broken`), &r))
}
