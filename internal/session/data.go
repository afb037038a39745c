package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"fitbridge/pkg/oauth"
)

// Data is the plaintext session payload.
//
// State, CodeVerifier and PostLoginReturnURL exist only between the start of
// a login and its callback. TokenSet is present once the user has
// authorized.
type Data struct {
	State              string          `json:"state,omitempty"`
	CodeVerifier       string          `json:"code_verifier,omitempty"`
	PostLoginReturnURL string          `json:"postLoginReturnUrl,omitempty"`
	TokenSet           *oauth.TokenSet `json:"tokenSet,omitempty"`
}

// IsEmpty reports whether no field is set.
func (d Data) IsEmpty() bool {
	return d.State == "" && d.CodeVerifier == "" && d.PostLoginReturnURL == "" && d.TokenSet == nil
}

// LoginPending reports whether a login was started and not yet completed.
func (d Data) LoginPending() bool {
	return d.CodeVerifier != ""
}

type dataShape struct {
	State              *string         `json:"state"`
	CodeVerifier       *string         `json:"code_verifier"`
	PostLoginReturnURL *string         `json:"postLoginReturnUrl"`
	TokenSet           json.RawMessage `json:"tokenSet"`
}

// ParseData validates a decrypted session payload. A payload that
// authenticates but was written by an incompatible version yields an
// *oauth.SchemaValidationError.
func ParseData(raw []byte) (Data, error) {
	var shape dataShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return Data{}, &oauth.SchemaValidationError{
			Subject: "session",
			Issues:  []string{err.Error()},
			Err:     err,
		}
	}

	var data Data
	if shape.State != nil {
		data.State = *shape.State
	}
	if shape.CodeVerifier != nil {
		data.CodeVerifier = *shape.CodeVerifier
	}
	if shape.PostLoginReturnURL != nil {
		data.PostLoginReturnURL = *shape.PostLoginReturnURL
	}

	if len(shape.TokenSet) > 0 && !bytes.Equal(bytes.TrimSpace(shape.TokenSet), []byte("null")) {
		ts, err := oauth.ParseStoredTokenSet(shape.TokenSet)
		if err != nil {
			return Data{}, &oauth.SchemaValidationError{
				Subject: "session",
				Issues:  []string{fmt.Sprintf("tokenSet: %v", err)},
				Err:     err,
			}
		}
		data.TokenSet = ts
	}

	return data, nil
}
