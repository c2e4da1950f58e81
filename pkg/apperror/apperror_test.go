package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	assert.Equal(t, "User not found.", NotFound("User").Error())
	assert.Equal(t, "User with this email already exists.", AlreadyExists("User", "email").Error())
	assert.Equal(t, "Could not validate credentials", Unauthorized("").Error())
	assert.Equal(t, "token expired", Unauthorized("token expired").Error())
}

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("User").StatusCode())
	assert.Equal(t, http.StatusConflict, AlreadyExists("User", "username").StatusCode())
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("").StatusCode())
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create user: %w", AlreadyExists("User", "email"))

	ae, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindAlreadyExists, ae.Kind)
	assert.Equal(t, "email", ae.Field)

	_, ok = As(errors.New("plain infrastructure failure"))
	assert.False(t, ok)
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(NotFound("User"), KindNotFound))
	assert.False(t, IsKind(NotFound("User"), KindAlreadyExists))
	assert.False(t, IsKind(errors.New("other"), KindNotFound))
}
