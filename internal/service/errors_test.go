package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulak-sarmah/e-com-auth-service/internal/transport"
)

func TestError_IsMatchesKind(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", newError(KindConflict, "taken", cause))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(cause))
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindValidation, Msg: "bad", Fields: []FieldError{{Field: "email", Msg: "Invalid email format"}}}
	assert.Equal(t, "ValidationError: bad; email: Invalid email format", err.Error())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "AuthenticationError", KindAuthentication.String())
	assert.Equal(t, "InternalServerError", Kind(99).String())
}

func TestValidator_Email(t *testing.T) {
	tests := map[string]bool{
		"a@b.io":         true,
		"john.doe@x.com": true,
		"":               false,
		"plain":          false,
		"John <a@b.io>":  false,
		"a@b.io extra":   false,
	}
	for in, ok := range tests {
		err := defaultValidator.Validate(&transport.LoginRequest{Email: in, Password: "x"})
		assert.Equal(t, ok, err == nil, in)
	}
}

func TestValidator_FieldsUseJSONNamesAndMessages(t *testing.T) {
	err := defaultValidator.Validate(&transport.RegisterRequest{
		FirstName: "J0hn",
		LastName:  "",
		Email:     "bad",
		Password:  "short",
	})

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindValidation, se.Kind)

	got := map[string]string{}
	for _, f := range se.Fields {
		got[f.Field] = f.Msg
	}
	assert.Equal(t, map[string]string{
		"firstName": "First name must contain only alphabetic characters",
		"lastName":  "Last name is required!",
		"email":     "Invalid email format",
		"password":  "Password must be between 8 and 20 characters long",
	}, got)
	assert.Equal(t, "First name must contain only alphabetic characters", se.Msg)
}

func TestValidator_PasswordByteLimit(t *testing.T) {
	req := transport.RegisterRequest{FirstName: "john", LastName: "doe", Email: "j@x.com"}

	req.Password = strings.Repeat("é", 20)
	assert.NoError(t, defaultValidator.Validate(&req), "40 bytes fits bcrypt")

	req.Password = strings.Repeat("😀", 20)
	err := defaultValidator.Validate(&req)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Len(t, se.Fields, 1)
	assert.Equal(t, "password", se.Fields[0].Field)
	assert.Equal(t, "Password must not exceed 72 bytes", se.Fields[0].Msg)
}

func TestValidator_PartialUpdates(t *testing.T) {
	empty, name, role := "", "Anna", "root"

	assert.NoError(t, defaultValidator.Validate(&transport.UpdateUserRequest{}))
	assert.NoError(t, defaultValidator.Validate(&transport.UpdateUserRequest{FirstName: &name}))
	assert.Error(t, defaultValidator.Validate(&transport.UpdateUserRequest{FirstName: &empty}))
	assert.Error(t, defaultValidator.Validate(&transport.UpdateUserRequest{Role: &role}))
	assert.Error(t, defaultValidator.Validate(&transport.UpdateTenantRequest{Name: &empty}))
}
