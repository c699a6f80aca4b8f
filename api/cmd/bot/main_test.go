package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	assert.Zero(t, retryDelayFromError(nil))
	assert.Equal(t, 7*time.Second, retryDelayFromError(errors.New("Too Many Requests: retry after 7")))
	assert.Equal(t, 3*time.Second, retryDelayFromError(errors.New("Too Many Requests")))
	assert.Equal(t, 2*time.Second, retryDelayFromError(timeoutErr{}))
	assert.Equal(t, time.Second, retryDelayFromError(errors.New("bad gateway")))
}

func TestShortHash(t *testing.T) {
	a := shortHash("123:abc")
	assert.Len(t, a, 16)
	assert.Equal(t, a, shortHash("123:abc"))
	assert.NotEqual(t, a, shortHash("123:abd"))
}
