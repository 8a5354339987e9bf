package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidArgument("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{PermissionDenied("no"), http.StatusForbidden},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{ResourceExhausted("busy"), http.StatusInternalServerError},
		{Unavailable("down", errors.New("dial tcp")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", PermissionDenied("You are not a member of this community"))
	assert.Equal(t, KindPermissionDenied, KindOf(err))
	assert.Equal(t, "You are not a member of this community", PublicMessage(err))
}

func TestPublicMessage_HidesCause(t *testing.T) {
	cause := errors.New("Error 1045: access denied for user root")
	err := Unavailable("Server error", cause)

	assert.Equal(t, "Server error", PublicMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Server error", PublicMessage(cause))
}
