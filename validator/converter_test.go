package validator

import (
	"errors"
	"testing"

	"github.com/KOMKZ/go-yogan-eventbus/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolConfig struct {
	Size int
	Mode string
}

func (c poolConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Size, validation.Min(0)),
		validation.Field(&c.Mode, validation.In("block", "drop")),
	)
}

type plainFailure struct{}

func (plainFailure) Validate() error { return errors.New("not a field error") }

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate("event", poolConfig{Size: 1, Mode: "block"}))
}

func TestValidate_FieldErrors(t *testing.T) {
	err := Validate("event", poolConfig{Size: -1, Mode: "queue"})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrValidationFailed)

	var le *errcode.LayeredError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 100001, le.Code())
	assert.Equal(t, "event", le.Data()["section"])

	fields, ok := le.Data()["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "Size")
	assert.Contains(t, fields, "Mode")

	var fieldErrs validation.Errors
	assert.True(t, errors.As(err, &fieldErrs))
}

func TestValidate_PassThrough(t *testing.T) {
	err := Validate("event", plainFailure{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, "not a field error", err.Error())
}
