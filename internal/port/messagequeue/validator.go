package messagequeue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation
// (future-proof for new message types).
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var target any
	switch subject {
	case SubjectCaseCreated:
		target = &CaseCreatedPayload{}
	case SubjectCaseApproved, SubjectCaseRejected:
		target = &CaseResolvedPayload{}
	case SubjectCaseReminded:
		target = &CaseRemindedPayload{}
	default:
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("schema mismatch on subject %s: %w", subject, err)
	}
	return nil
}
