package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = New(KindConflict, "SAMPLE", "sample conflict")

func TestWrappedSentinelMatches(t *testing.T) {
	cause := errors.New("duplicate key")
	err := fmt.Errorf("insert notice: %w", Wrap(errSample, cause))

	assert.ErrorIs(t, err, errSample)
	assert.ErrorIs(t, err, cause)

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindConflict, appErr.Kind)
	assert.Equal(t, "sample conflict: duplicate key", appErr.Error())
}

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthorized: http.StatusUnauthorized,
		KindValidation:   http.StatusBadRequest,
		KindConflict:     http.StatusConflict,
		KindNotFound:     http.StatusNotFound,
		KindForbidden:    http.StatusForbidden,
		KindUpstream:     http.StatusInternalServerError,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status())
	}
}

func TestAsPlainError(t *testing.T) {
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}
