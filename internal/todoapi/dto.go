package todoapi

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// todoDTO is a to-do as sent by the server. The reference backend keys
// records by "_id"; plain "id" is accepted as well.
type todoDTO struct {
	MongoID   flexID `json:"_id"`
	ID        flexID `json:"id"`
	Body      string `json:"body"`
	Completed bool   `json:"completed"`
}

// createRequest is the POST payload
type createRequest struct {
	Body      string `json:"body"`
	Completed bool   `json:"completed"`
}

// updateRequest is the PUT payload. Only set fields are sent.
type updateRequest struct {
	Body      *string `json:"body,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// flexID decodes identifiers sent either as JSON strings or numbers
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}
