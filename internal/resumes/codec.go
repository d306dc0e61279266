package resumes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Encode serialises r to its canonical stored form.
func Encode(r Resume) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode resume %s: %w", r.ID, err)
	}
	return string(data), nil
}

// Decode parses a stored value. Empty, malformed and non-object payloads, and
// records without an id, return an error wrapping ErrDecode. A well-formed
// object whose fields have unexpected types is still a record: mistyped
// display fields and feedback decode to their zero values.
func Decode(raw string) (Resume, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Resume{}, fmt.Errorf("%w: empty value", ErrDecode)
	}
	if !strings.HasPrefix(trimmed, "{") {
		return Resume{}, fmt.Errorf("%w: not a JSON object", ErrDecode)
	}

	var r Resume
	err := json.Unmarshal([]byte(trimmed), &r)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		r, err = decodeLenient([]byte(trimmed))
	}
	if err != nil {
		return Resume{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if strings.TrimSpace(r.ID) == "" {
		return Resume{}, fmt.Errorf("%w: missing id", ErrDecode)
	}
	return r, nil
}

// decodeLenient reads a record field by field, dropping values of the wrong type.
func decodeLenient(data []byte) (Resume, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Resume{}, err
	}
	return Resume{
		ID:             stringField(fields["id"]),
		CompanyName:    stringField(fields["companyName"]),
		JobTitle:       stringField(fields["jobTitle"]),
		JobDescription: stringField(fields["jobDescription"]),
		ImagePath:      stringField(fields["imagePath"]),
		ResumePath:     stringField(fields["resumePath"]),
		Feedback:       lenientFeedback(fields["feedback"]),
	}, nil
}

func lenientFeedback(raw json.RawMessage) Feedback {
	var f Feedback
	if len(raw) == 0 || json.Unmarshal(raw, &f) == nil {
		return f
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return Feedback{}
	}
	return Feedback{
		OverallScore: numberField(fields["overallScore"]),
		ATS:          lenientSection(fields["ATS"]),
		ToneAndStyle: lenientSection(fields["toneAndStyle"]),
		Content:      lenientSection(fields["content"]),
		Structure:    lenientSection(fields["structure"]),
		Skills:       lenientSection(fields["skills"]),
	}
}

func lenientSection(raw json.RawMessage) *Section {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var s Section
	if json.Unmarshal(raw, &s) == nil {
		return &s
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return nil
	}
	s = Section{Score: numberField(fields["score"])}
	var tips []Tip
	if json.Unmarshal(fields["tips"], &tips) == nil {
		s.Tips = tips
	}
	return &s
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// numberField accepts JSON numbers and numeric strings.
func numberField(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return 0
}
