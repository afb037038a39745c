package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitbridge/pkg/oauth"
)

func TestParseData(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Data
		wantErr bool
	}{
		{
			name: "empty object",
			raw:  `{}`,
			want: Data{},
		},
		{
			name: "login pending",
			raw:  `{"state":"s","code_verifier":"v","postLoginReturnUrl":"/x"}`,
			want: Data{State: "s", CodeVerifier: "v", PostLoginReturnURL: "/x"},
		},
		{
			name: "null token set",
			raw:  `{"tokenSet":null}`,
			want: Data{},
		},
		{
			name: "unknown fields ignored",
			raw:  `{"state":"s","legacy":true}`,
			want: Data{State: "s"},
		},
		{
			name:    "state of wrong type",
			raw:     `{"state":42}`,
			wantErr: true,
		},
		{
			name:    "incomplete token set",
			raw:     `{"tokenSet":{"access_token":"a","refresh_token":"r"}}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			raw:     `"hello"`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseData([]byte(tc.raw))
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, oauth.IsSchemaValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestData_Predicates(t *testing.T) {
	assert.True(t, Data{}.IsEmpty())
	assert.False(t, Data{State: "s"}.IsEmpty())
	assert.False(t, Data{}.LoginPending())
	assert.True(t, Data{CodeVerifier: "v"}.LoginPending())
}
