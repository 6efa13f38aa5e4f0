package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIDAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		ID  flexID   `json:"id"`
		IDs []flexID `json:"ids"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42","ids":[1,"2",3]}`), &v))
	assert.Equal(t, int64(42), v.ID.Int64())
	assert.Equal(t, []int64{1, 2, 3}, toInt64(v.IDs))

	require.NoError(t, json.Unmarshal([]byte(`{"id":null}`), &v))
	assert.Equal(t, int64(0), v.ID.Int64())

	assert.Error(t, json.Unmarshal([]byte(`{"id":"abc"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"id":1.5}`), &v))
}
