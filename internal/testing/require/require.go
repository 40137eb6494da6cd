// Package require is a thin wrapper over testify's assert/require so
// that test files in this module share one assertion vocabulary,
// independent of whichever exact testify release is vendored.
package require

import (
	"fmt"

	"github.com/stretchr/testify/require"
)

type TestingT = require.TestingT

func NoError(t TestingT, err error, msgAndArgs ...interface{}) {
	require.NoError(t, err, msgAndArgs...)
}

func Error(t TestingT, err error, msgAndArgs ...interface{}) {
	require.Error(t, err, msgAndArgs...)
}

func ErrorContains(t TestingT, err error, substr string, msgAndArgs ...interface{}) {
	require.ErrorContains(t, err, substr, msgAndArgs...)
}

func Equal(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) {
	require.Equal(t, expected, actual, msgAndArgs...)
}

func NotEqual(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) {
	require.NotEqual(t, expected, actual, msgAndArgs...)
}

func True(t TestingT, value bool, msgAndArgs ...interface{}) {
	require.True(t, value, msgAndArgs...)
}

func False(t TestingT, value bool, msgAndArgs ...interface{}) {
	require.False(t, value, msgAndArgs...)
}

func Nil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	require.Nil(t, object, msgAndArgs...)
}

func NotNil(t TestingT, object interface{}, msgAndArgs ...interface{}) {
	require.NotNil(t, object, msgAndArgs...)
}

func Len(t TestingT, object interface{}, length int, msgAndArgs ...interface{}) {
	require.Len(t, object, length, msgAndArgs...)
}

func Contains(t TestingT, s, contains interface{}, msgAndArgs ...interface{}) {
	require.Contains(t, s, contains, msgAndArgs...)
}

// CapturePanic runs fn and returns the recovered value as an error, or
// nil if fn did not panic. Mirrors wazero's require.CapturePanic,
// used by tests that assert on a fatal-abort code path.
func CapturePanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	fn()
	return
}

// Equalf / Truef etc. are intentionally omitted: callers that need a
// formatted message pass it as the trailing msgAndArgs like testify does.
