package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *UpsertUser {
	return &UpsertUser{
		Email:    "ali@example.com",
		Password: "gizli123",
		Fullname: "Ali Veli",
		RoleID:   1,
	}
}

func TestUpsertUserValidate(t *testing.T) {
	require.NoError(t, validInput().Validate())
}

func TestUpsertUserValidateMissingFields(t *testing.T) {
	cases := map[string]func(*UpsertUser){
		"email":    func(u *UpsertUser) { u.Email = "" },
		"password": func(u *UpsertUser) { u.Password = "" },
		"fullname": func(u *UpsertUser) { u.Fullname = "" },
		"role_id":  func(u *UpsertUser) { u.RoleID = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(input)
			assert.ErrorIs(t, input.Validate(), ErrMissingField)
		})
	}
}

func TestUpsertUserValidateFieldLength(t *testing.T) {
	long := strings.Repeat("a", MaxFieldLength+1)

	input := validInput()
	input.Fullname = long
	assert.ErrorIs(t, input.Validate(), ErrFieldTooLong)

	input = validInput()
	input.Email = long
	assert.ErrorIs(t, input.Validate(), ErrFieldTooLong)

	input = validInput()
	input.Password = long
	assert.ErrorIs(t, input.Validate(), ErrFieldTooLong)

	// Exactly at the limit is still fine.
	input = validInput()
	input.Fullname = strings.Repeat("a", MaxFieldLength)
	assert.NoError(t, input.Validate())
}
