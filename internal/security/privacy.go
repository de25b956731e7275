package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/smartcity/governance/internal/domain"
)

// Redacted replaces removed personal data
const Redacted = "[REDACTED]"

// PIIFields are the request fields treated as personal data
var PIIFields = []string{"citizen_id", "phone", "address", "aadhaar"}

// HashID returns a stable 16 hex character pseudonym for an identifier
func HashID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:16]
}

// AnonymizePII returns a copy of record with citizen_id hashed and the other
// personal fields redacted. The input map is not modified.
func AnonymizePII(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}

	for _, field := range PIIFields {
		v, ok := out[field]
		if !ok {
			continue
		}
		if field == "citizen_id" {
			out[field] = HashID(toString(v))
			continue
		}
		out[field] = Redacted
	}
	return out
}

// AnonymizeRequest applies AnonymizePII to the personal fields of a
// ServiceRequest. Empty fields stay empty.
func AnonymizeRequest(req domain.ServiceRequest) domain.ServiceRequest {
	fields := map[string]*string{
		"citizen_id": &req.CitizenID,
		"phone":      &req.Phone,
		"address":    &req.Address,
		"aadhaar":    &req.Aadhaar,
	}

	record := make(map[string]any, len(fields))
	for name, v := range fields {
		if *v != "" {
			record[name] = *v
		}
	}
	for name, v := range AnonymizePII(record) {
		*fields[name] = toString(v)
	}
	return req
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}
