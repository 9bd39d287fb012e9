package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorKeepsKind(t *testing.T) {
	err := WrapError(errors.New("status 500"), ErrHTTPResponse, "fetch clients")
	assert.True(t, Is(err, ErrHTTPResponse), "got %v", err)
	assert.EqualError(t, err, "HTTP response error: fetch clients: status 500")
}

func TestIsFetchFailure(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{WrapError(errors.New("dial"), ErrHTTPRequest, "fetch"), true},
		{WrapError(errors.New("404"), ErrHTTPResponse, "fetch"), true},
		{WrapError(errors.New("bad json"), ErrDecode, "fetch"), false},
		{nil, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsFetchFailure(c.err), "IsFetchFailure(%v)", c.err)
	}
}
