package model

import "time"

// DefaultCategory is assigned to credentials created or updated without a category.
const DefaultCategory = "General"

// Credential is a stored API key together with the metadata needed to use it.
// OwnerID is the identity of the caller that created the row and never changes.
type Credential struct {
	ID          string
	Name        string
	SecretValue string
	BaseURL     string
	Model       string
	Description string
	Category    string
	IsActive    bool
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NextUpdatedAt returns the UpdatedAt value for a mutation happening at now.
// The result is strictly after the current UpdatedAt even when the clock did
// not advance between two writes.
func (c Credential) NextUpdatedAt(now time.Time) time.Time {
	if !now.After(c.UpdatedAt) {
		return c.UpdatedAt.Add(time.Nanosecond)
	}
	return now
}

// CredentialPatch carries the mutable fields of an update. Nil fields keep
// their stored value.
type CredentialPatch struct {
	Name        *string
	SecretValue *string
	BaseURL     *string
	Model       *string
	Description *string
	Category    *string
	IsActive    *bool
}

// Fields returns the wire names of the fields set on the patch, in mapping order.
func (p CredentialPatch) Fields() []string {
	var fields []string
	for _, m := range FieldMappings {
		if p.has(m.Field) {
			fields = append(fields, m.Field)
		}
	}
	return fields
}

func (p CredentialPatch) has(field string) bool {
	switch field {
	case FieldName:
		return p.Name != nil
	case FieldSecretValue:
		return p.SecretValue != nil
	case FieldBaseURL:
		return p.BaseURL != nil
	case FieldModel:
		return p.Model != nil
	case FieldDescription:
		return p.Description != nil
	case FieldCategory:
		return p.Category != nil
	case FieldIsActive:
		return p.IsActive != nil
	default:
		return false
	}
}

// Apply merges the non-nil patch fields over c and returns the result.
// ID, OwnerID and timestamps are never touched.
func (p CredentialPatch) Apply(c Credential) Credential {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.SecretValue != nil {
		c.SecretValue = *p.SecretValue
	}
	if p.BaseURL != nil {
		c.BaseURL = *p.BaseURL
	}
	if p.Model != nil {
		c.Model = *p.Model
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	return c
}
