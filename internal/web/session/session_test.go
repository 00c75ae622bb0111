package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestData_WriteRead(t *testing.T) {
	Init(nil)

	id, err := GenerateSessionID()
	require.NoError(t, err)
	assert.Len(t, id, 64)

	in := &Data{UserID: 7, TenantID: "BR"}
	require.NoError(t, in.Write(id, time.Minute))

	var out Data
	require.NoError(t, out.Read(id))
	assert.Equal(t, *in, out)

	require.NoError(t, Delete(id))
	require.ErrorIs(t, new(Data).Read(id), ErrNotFound)
}

func TestData_ReadUnknown(t *testing.T) {
	Init(nil)

	require.ErrorIs(t, new(Data).Read(""), ErrNotFound)
	require.ErrorIs(t, new(Data).Read("does-not-exist"), ErrNotFound)
}
