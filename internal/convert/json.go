// Package convert maps domain models to and from their JSON wire shapes.
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	u "github.com/gofrs/uuid/v5"

	model "github.com/and161185/jobtrack/internal/model"
)

// --- User ---

// UserDTO is the only outbound shape of a user; hash and salt never leave the server.
type UserDTO struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// ToUserDTO projects a user to its public fields.
func ToUserDTO(usr model.User) UserDTO {
	return UserDTO{ID: usr.ID.String(), FullName: usr.FullName, Email: usr.Email}
}

// --- Application ---

// ApplicationDTO is the wire form of an application. The id is emitted under
// both "_id" and "id" so either key works for clients.
type ApplicationDTO struct {
	DocID           string    `json:"_id"`
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	CompanyName     string    `json:"companyName"`
	JobRole         string    `json:"jobRole"`
	ApplicationDate time.Time `json:"applicationDate"`
	Status          string    `json:"status"`
	JobURL          string    `json:"jobUrl"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToApplicationDTO converts a domain application to its wire form.
func ToApplicationDTO(a model.Application) ApplicationDTO {
	id := a.ID.String()
	return ApplicationDTO{
		DocID:           id,
		ID:              id,
		UserID:          a.UserID.String(),
		CompanyName:     a.CompanyName,
		JobRole:         a.JobRole,
		ApplicationDate: a.ApplicationDate.UTC(),
		Status:          string(a.Status),
		JobURL:          a.JobURL,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.UTC(),
	}
}

// ToApplicationDTOs converts a slice; the result is never nil.
func ToApplicationDTOs(in []model.Application) []ApplicationDTO {
	out := make([]ApplicationDTO, 0, len(in))
	for _, a := range in {
		out = append(out, ToApplicationDTO(a))
	}
	return out
}

// FromApplicationDTO parses a wire application back into the domain model.
func FromApplicationDTO(d ApplicationDTO) (model.Application, error) {
	raw := d.ID
	if raw == "" {
		raw = d.DocID
	}
	id, err := u.FromString(raw)
	if err != nil {
		return model.Application{}, fmt.Errorf("bad id %q: %w", raw, err)
	}
	owner, err := u.FromString(d.UserID)
	if err != nil {
		return model.Application{}, fmt.Errorf("bad userId %q: %w", d.UserID, err)
	}
	st, ok := model.ParseStatus(d.Status)
	if !ok {
		return model.Application{}, fmt.Errorf("bad status %q", d.Status)
	}
	return model.Application{
		ID:              id,
		UserID:          owner,
		CompanyName:     d.CompanyName,
		JobRole:         d.JobRole,
		ApplicationDate: d.ApplicationDate,
		Status:          st,
		JobURL:          d.JobURL,
		Notes:           d.Notes,
		CreatedAt:       d.CreatedAt,
	}, nil
}

// OptString is a string field that remembers whether its key was present and
// whether it carried an explicit null.
type OptString struct {
	Set   bool
	Null  bool
	Value string
}

// Opt wraps p; nil stays absent.
func Opt(p *string) OptString {
	if p == nil {
		return OptString{}
	}
	return OptString{Set: true, Value: *p}
}

// UnmarshalJSON records presence and null.
func (o *OptString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// MarshalJSON writes null or the value.
func (o OptString) MarshalJSON() ([]byte, error) {
	if o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// IsZero reports an absent key, so omitzero drops it.
func (o OptString) IsZero() bool { return !o.Set }

// Ptr returns nil for an absent key, the empty string for null and the value otherwise.
func (o OptString) Ptr() *string {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// ApplicationRequest is the body of create and update calls.
// Owner and id keys are not part of the shape and are dropped on decode.
type ApplicationRequest struct {
	CompanyName     OptString `json:"companyName,omitzero"`
	JobRole         OptString `json:"jobRole,omitzero"`
	ApplicationDate OptString `json:"applicationDate,omitzero"`
	Status          OptString `json:"status,omitzero"`
	JobURL          OptString `json:"jobUrl,omitzero"`
	Notes           OptString `json:"notes,omitzero"`
}

// FromApplicationRequest converts a request body into service input.
// A null value clears the field, which fails validation for required fields.
// A null applicationDate counts as not supplied.
func FromApplicationRequest(r ApplicationRequest) model.ApplicationInput {
	in := model.ApplicationInput{
		CompanyName: r.CompanyName.Ptr(),
		JobRole:     r.JobRole.Ptr(),
		Status:      r.Status.Ptr(),
		JobURL:      r.JobURL.Ptr(),
		Notes:       r.Notes.Ptr(),
	}
	if !r.ApplicationDate.Null {
		in.ApplicationDate = r.ApplicationDate.Ptr()
	}
	return in
}

// ToApplicationRequest is the client-side inverse of FromApplicationRequest.
func ToApplicationRequest(in model.ApplicationInput) ApplicationRequest {
	return ApplicationRequest{
		CompanyName:     Opt(in.CompanyName),
		JobRole:         Opt(in.JobRole),
		ApplicationDate: Opt(in.ApplicationDate),
		Status:          Opt(in.Status),
		JobURL:          Opt(in.JobURL),
		Notes:           Opt(in.Notes),
	}
}

// --- Stats ---

// StatsDTO always carries every key, zeros included.
type StatsDTO struct {
	Total     int `json:"total"`
	Applied   int `json:"Applied"`
	Interview int `json:"Interview"`
	Offer     int `json:"Offer"`
	Rejected  int `json:"Rejected"`
}

// ToStatsDTO converts domain stats to the wire form.
func ToStatsDTO(s model.Stats) StatsDTO {
	return StatsDTO(s)
}

// FromStatsDTO converts wire stats to the domain form.
func FromStatsDTO(s StatsDTO) model.Stats {
	return model.Stats(s)
}
