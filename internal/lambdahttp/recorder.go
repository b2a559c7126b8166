package lambdahttp

import (
	"bytes"
	"net/http"
)

// recorder captures a handler's response for translation back into a proxy
// response.
type recorder struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{status: http.StatusOK, header: make(http.Header)}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
}

func (r *recorder) Write(data []byte) (int, error) {
	return r.body.Write(data)
}
