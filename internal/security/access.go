package security

import (
	"fmt"
	"slices"
)

// Roles
const (
	RoleCitizenService = "citizen_service"
	RoleDataAnalyst    = "data_analyst"
	RoleAdmin          = "admin"
)

const allFields = "*"

var accessMatrix = map[string][]string{
	RoleCitizenService: {"service_category", "district", "status", "priority_score"},
	RoleDataAnalyst:    {"service_category", "district", "status", "priority_score", "request_count", "resolution_time"},
	RoleAdmin:          {allFields},
}

// ValidateDataAccess reports whether role may read every requested field.
// Unknown roles have no access.
func ValidateDataAccess(role string, fields []string) bool {
	allowed, ok := accessMatrix[role]
	if !ok {
		return false
	}
	if slices.Contains(allowed, allFields) {
		return true
	}
	for _, f := range fields {
		if !slices.Contains(allowed, f) {
			return false
		}
	}
	return true
}

// AllowedFields returns the fields a role may read; nil means everything
func AllowedFields(role string) ([]string, error) {
	allowed, ok := accessMatrix[role]
	if !ok {
		return nil, fmt.Errorf("security: unknown role %q", role)
	}
	if slices.Contains(allowed, allFields) {
		return nil, nil
	}
	return slices.Clone(allowed), nil
}

// FilterFields keeps only the keys of record that role may read
func FilterFields(role string, record map[string]any) (map[string]any, error) {
	allowed, err := AllowedFields(role)
	if err != nil {
		return nil, err
	}
	if allowed == nil {
		return record, nil
	}
	out := make(map[string]any, len(allowed))
	for _, f := range allowed {
		if v, ok := record[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}
