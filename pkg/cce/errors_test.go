package cce

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCCEError_ErrorMessageIncludesWrappedError(t *testing.T) {
	inner := errors.New("boom")
	e := &CCEError{Kind: "type", Msg: "bad input", Err: inner}

	assert.Contains(t, e.Error(), "bad input")
	assert.Contains(t, e.Error(), "boom")
}

func TestCCEError_ErrorMessageWithoutWrappedError(t *testing.T) {
	e := &CCEError{Kind: "type", Msg: "bad input"}
	assert.Contains(t, e.Error(), "bad input")
}

func TestCCEError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	e := &CCEError{Kind: "type", Msg: "bad input", Err: inner}

	assert.Equal(t, inner, errors.Unwrap(e))
	assert.True(t, errors.Is(e, inner))
}

func TestNewTypeErrorf(t *testing.T) {
	e := newTypeErrorf("value %d is invalid", 42)
	assert.Contains(t, e.Error(), "42")
}

func TestCompress_RejectsEmptyMessageID(t *testing.T) {
	_, err := Compress(context.Background(), []Message{
		{ID: "", Role: RoleUser, Content: "hi"},
	}, CompressOptions{})

	var cceErr *CCEError
	require.ErrorAs(t, err, &cceErr)
	assert.Equal(t, "type", cceErr.Kind)
}

func TestCompress_RejectsDuplicateMessageID(t *testing.T) {
	_, err := Compress(context.Background(), []Message{
		{ID: "dup", Role: RoleUser, Content: "first"},
		{ID: "dup", Role: RoleUser, Content: "second"},
	}, CompressOptions{})

	var cceErr *CCEError
	require.ErrorAs(t, err, &cceErr)
	assert.Contains(t, cceErr.Error(), "dup")
}
