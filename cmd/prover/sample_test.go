package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputs(t *testing.T) {
	vals, err := parseInputs("", 3)
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, "3", vals[2].String())

	vals, err = parseInputs("10, 0x10", 2)
	require.NoError(t, err)
	assert.Equal(t, "10", vals[0].String())
	assert.Equal(t, "16", vals[1].String())

	_, err = parseInputs("1,2,3", 2)
	assert.Error(t, err)

	_, err = parseInputs("1,abc", 2)
	assert.Error(t, err)
}
