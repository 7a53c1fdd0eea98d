package email

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

func TestFailedRecord(t *testing.T) {
	r := FailedRecord("m1", errors.New("boom"))
	be.Equal(t, r.ID, "m1")
	be.True(t, r.Failed())
	be.Equal(t, *r.Error, "boom")
	be.True(t, r.To == nil && r.Date == nil && r.InternalDate == nil)
}

func TestCountFailed(t *testing.T) {
	records := []Record{
		{ID: "a"},
		FailedRecord("b", errors.New("x")),
		FailedRecord("c", errors.New("y")),
	}
	be.Equal(t, CountFailed(records), 2)
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("403 forbidden")
	var err error = &FetchError{Query: "label:x", Err: cause}

	be.True(t, errors.Is(err, cause))
	var fe *FetchError
	be.True(t, errors.As(err, &fe))
	be.Equal(t, fe.Query, "label:x")
}
