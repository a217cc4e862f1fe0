package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaflow/linguaflow/client/go-companion/internal/platform"
)

func TestClassify_SubstringTables(t *testing.T) {
	cases := []struct {
		op   Operation
		msg  string
		want Kind
	}{
		{OpSignUp, "User already registered", KindAlreadyRegistered},
		{OpSignUp, "Password should be at least 6 characters", KindWeakPassword},
		{OpSignUp, "Unable to validate email address: invalid format", KindInvalidEmail},
		{OpSignUp, "email rate limit exceeded", KindRateLimited},
		{OpSignUp, "something odd", KindGeneric},
		{OpSignIn, "Invalid login credentials", KindInvalidCredentials},
		{OpSignIn, "Email not confirmed", KindEmailNotConfirmed},
		{OpSignIn, "User already registered", KindGeneric},
		{OpResetPassword, "For security purposes, you can only request this after 42 seconds", KindRateLimited},
		{OpResetPassword, "User not found", KindNotFound},
		{OpResetPassword, "Unable to validate email address", KindInvalidEmail},
		{OpUpdatePassword, "Password should contain a digit", KindWeakPassword},
		{OpUpdatePassword, "Password should contain at least one character of each: abc", KindWeakPassword},
		{OpSignUp, "Password should contain at least one character of each: abc", KindWeakPassword},
		{OpUpdatePassword, "Password is known to be weak and easy to guess, please choose a different one.", KindWeakPassword},
		{OpSignUp, "Password is known to be weak and easy to guess, please choose a different one.", KindWeakPassword},
		{OpUpdatePassword, "rate limit", KindGeneric},
		{OpResendConfirmation, "over rate limit", KindRateLimited},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s", tc.op, tc.msg), func(t *testing.T) {
			err := &platform.Error{Status: 400, Message: tc.msg}
			got := Classify(tc.op, err)
			assert.Equal(t, tc.want, got.Kind)
			assert.ErrorIs(t, got, err)
		})
	}
}

func TestClassify_AlreadyRegisteredMessage(t *testing.T) {
	got := Classify(OpSignUp, errors.New("User already registered"))
	assert.Equal(t, KindAlreadyRegistered, got.Kind)
	assert.Contains(t, got.Message, "já está cadastrado")
	assert.Equal(t, ClassConflict, got.Kind.Class())
}

func TestClassify_CodeWinsOverMessage(t *testing.T) {
	err := &platform.Error{Status: 422, Code: "weak_password", Message: "User already registered"}
	assert.Equal(t, KindWeakPassword, Classify(OpSignUp, err).Kind)
}

func TestClassify_Status429IsRateLimited(t *testing.T) {
	err := &platform.Error{Status: 429, Message: "Too Many Requests"}
	assert.Equal(t, KindRateLimited, Classify(OpSignIn, err).Kind)
}

func TestClassify_NetworkIsTransient(t *testing.T) {
	err := fmt.Errorf("%w: dial tcp: refused", platform.ErrNetwork)
	got := Classify(OpSignIn, err)
	assert.Equal(t, KindTransient, got.Kind)
	assert.Equal(t, ClassTransient, got.Kind.Class())
}

func TestClassify_PassesThroughClassified(t *testing.T) {
	orig := New(KindUnauthenticated, OpCheckout)
	got := Classify(OpCheckout, fmt.Errorf("wrapped: %w", orig))
	assert.Same(t, orig, got)
	assert.Nil(t, Classify(OpSignIn, nil))
}

func TestGenericMessagePerOperation(t *testing.T) {
	assert.NotEqual(t, New(KindGeneric, OpSignIn).Message, New(KindGeneric, OpSignUp).Message)
	assert.NotEmpty(t, New(KindGeneric, Operation("other")).Message)
	assert.Equal(t, "Erro", Title(Operation("other")))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindRateLimited, KindOf(fmt.Errorf("x: %w", New(KindRateLimited, OpSignUp))))
	require.Equal(t, KindGeneric, KindOf(errors.New("plain")))
}
