package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRecover_WithPanic(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "TestOperation")
		panic("test panic message")
	}

	err := run()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, As(err, &panicErr), "expected *PanicError, got %T", err)
	assert.Equal(t, "TestOperation", panicErr.Operation)
	assert.Equal(t, "test panic message", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "panic in TestOperation: test panic message", panicErr.Error())
}

func TestRecover_WithoutPanic(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err, "TestOperation")
		return nil
	}
	assert.NoError(t, run())
}

func TestRecover_WithExistingError(t *testing.T) {
	original := fmt.Errorf("original error")
	run := func() (err error) {
		defer Recover(&err, "TestOperation")
		err = original
		panic("panic after error")
	}

	err := run()
	require.Error(t, err)
	assert.True(t, Is(err, original), "original error should stay in the chain")
	assert.Contains(t, err.Error(), "panic in TestOperation")
	assert.Contains(t, err.Error(), "panic after error")
}

func TestSafeExecute(t *testing.T) {
	t.Run("passes through errors", func(t *testing.T) {
		want := NewValueError("op", "bad")
		err := SafeExecute("op", func() error { return want })
		assert.Equal(t, want, err)
	})

	t.Run("gonum shape mismatch becomes PanicError", func(t *testing.T) {
		err := SafeExecute("matrix product", func() error {
			var c mat.Dense
			c.Mul(mat.NewDense(2, 3, nil), mat.NewDense(2, 3, nil))
			return nil
		})
		require.Error(t, err)

		var panicErr *PanicError
		require.True(t, As(err, &panicErr))
		assert.Equal(t, "matrix product", panicErr.Operation)
		assert.True(t, strings.Contains(panicErr.String(), "Stack trace"))
	})

	t.Run("error panic values unwrap", func(t *testing.T) {
		err := SafeExecute("op", func() error { panic(ErrSingularMatrix) })
		assert.True(t, Is(err, ErrSingularMatrix))
	})
}
