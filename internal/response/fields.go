package response

import (
	"github.com/indigo-web/slotted/http/status"
	"github.com/indigo-web/slotted/kv"
)

// preallocHeaders is the capacity response headers start with.
const preallocHeaders = 8

// Fields are the parts of a response set by the handler before the headers are sent.
type Fields struct {
	Code    status.Code
	Reason  string
	Headers *kv.Storage
}

func NewFields() *Fields {
	return &Fields{
		Code:    status.OK,
		Headers: kv.NewPrealloc(preallocHeaders),
	}
}

// Clear resets the fields to a bare 200 OK, keeping the headers storage.
func (f *Fields) Clear() {
	f.Code = status.OK
	f.Reason = ""
	f.Headers.Clear()
}
