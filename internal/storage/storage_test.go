package storage_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/oficina/internal/storage"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, storage.Wrap("load", "x", nil))

	err := storage.Wrap("save", "/data/oficina.json", fs.ErrPermission)

	var se *storage.Error
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "save", se.Op)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Contains(t, err.Error(), "/data/oficina.json")
}
