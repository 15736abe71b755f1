package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bullishbrief/pkg/domain-errors"
)

func TestValidate(t *testing.T) {
	t.Run("empty address is required", func(t *testing.T) {
		err := Validate("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "Email is required", err.Error())
	})

	t.Run("malformed address", func(t *testing.T) {
		for _, bad := range []string{"not-an-email", "a@b", "a b@c.d", "a@b c.d", "@b.c", "a@.c"} {
			err := Validate(bad)
			require.Error(t, err, bad)
			assert.Equal(t, "Invalid email format", err.Error(), bad)
		}
	})

	t.Run("lenient pattern passes", func(t *testing.T) {
		for _, ok := range []string{"a@b.c", "reader@x.com", "first.last+tag@sub.domain.io"} {
			assert.NoError(t, Validate(ok), ok)
		}
	})
}

func TestDeriveNameFromEmail(t *testing.T) {
	cases := []struct {
		in          string
		first, last string
	}{
		{"jane.doe@example.com", "Jane", "Doe"},
		{"jane@example.com", "Jane", "User"},
		{"j_doe-reader@example.com", "J", "Reader"},
		{"@example.com", "User", "User"},
	}
	for _, c := range cases {
		first, last := DeriveNameFromEmail(c.in)
		assert.Equal(t, c.first, first, c.in)
		assert.Equal(t, c.last, last, c.in)
	}
}
