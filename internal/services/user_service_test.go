package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyWriteError(message string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{
			{Code: 11000, Message: message},
		},
	}
}

func TestDuplicateKeySentinel(t *testing.T) {
	emailErr := duplicateKeyWriteError(
		`E11000 duplicate key error collection: potato_chat.users index: email_1 dup key: { email: "alice@example.com" }`)
	usernameErr := duplicateKeyWriteError(
		`E11000 duplicate key error collection: potato_chat.users index: username_1 dup key: { username: "alice" }`)

	require.True(t, mongo.IsDuplicateKeyError(emailErr))
	require.True(t, mongo.IsDuplicateKeyError(usernameErr))

	assert.ErrorIs(t, duplicateKeySentinel(emailErr), ErrDuplicateEmail)
	assert.ErrorIs(t, duplicateKeySentinel(usernameErr), ErrDuplicateUsername)
}
