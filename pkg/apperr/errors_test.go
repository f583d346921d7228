package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unconfigured", Unconfigured("exa"), "provider_unconfigured"},
		{"unavailable", Unavailable("google", errors.New("timeout")), "provider_unavailable"},
		{"malformed", Malformed("gemini", errors.New("eof")), "malformed_response"},
		{"session", fmt.Errorf("session x: %w", ErrSessionNotFound), "session_not_found"},
		{"no result wraps cause", fmt.Errorf("search: %w: %w", ErrNoResultFound, Unconfigured("exa")), "no_result_found"},
		{"plain", errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Kind(tc.err))
		})
	}
}

func TestUnavailableKeepsCauseText(t *testing.T) {
	err := Unavailable("scanner", errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}
