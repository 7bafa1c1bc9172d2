package waste

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	tests := []struct {
		name string
		err  error
		want error
		code ErrorCode
	}{
		{name: "not found", err: NotFoundError("load", "no model for %s", "P001"), want: ErrNotFound, code: CodeNotFound},
		{name: "configuration", err: ConfigurationError("read", cause, "recipients"), want: ErrConfiguration, code: CodeConfiguration},
		{name: "computation", err: ComputationError("predict", cause, "P002"), want: ErrComputation, code: CodeComputation},
		{name: "wrapped", err: fmt.Errorf("handler: %w", NotFoundError("load", "x")), want: ErrNotFound, code: CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
			assert.Equal(t, tt.code, CodeOf(tt.err))
		})
	}
}

func TestErrorKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := ComputationError("predict", cause, "classifier for %s", "P003")

	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "predict: classifier for P003: dial tcp: connection refused", err.Error())
	assert.Equal(t, "load: missing", NotFoundError("load", "missing").Error())
}

func TestCodeOfPlainErrors(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("boom")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("store: %w", ErrNotFound)))
}
