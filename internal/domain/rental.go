package domain

import "encoding/json"

// Rental is a rental record as returned by the rental service. The service
// owns the schema, so the full payload is retained in Raw and passed through
// to clients unchanged; only the fields needed for ownership checks are
// decoded.
type Rental struct {
	ID     int64           `json:"rental_id"`
	UserID int64           `json:"user_id"`
	Raw    json.RawMessage `json:"-"`
}

// MarshalJSON emits the original rental payload when present so no fields
// the rental service added are lost in transit.
func (r Rental) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type alias struct {
		ID     int64 `json:"rental_id"`
		UserID int64 `json:"user_id"`
	}
	return json.Marshal(alias{ID: r.ID, UserID: r.UserID})
}

// UnmarshalJSON decodes the ownership fields and keeps the raw payload.
func (r *Rental) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID     int64 `json:"rental_id"`
		UserID int64 `json:"user_id"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	r.ID = a.ID
	r.UserID = a.UserID
	r.Raw = append(r.Raw[:0], data...)
	return nil
}
