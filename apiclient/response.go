package apiclient

import (
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// Response wraps http.Response with cached body reading and JSON decoding.
// The client hands back the raw response; interpreting the payload is the
// caller's job.
type Response struct {
	// Response embeds the standard http.Response, so status code and
	// headers are accessible directly.
	*http.Response

	request  *http.Request
	body     []byte
	bodyRead bool
	result   any
}

// Body returns the response body, reading and caching it on first access.
func (r *Response) Body() ([]byte, error) {
	if r.bodyRead {
		return r.body, nil
	}

	defer r.Response.Body.Close()
	body, err := io.ReadAll(r.Response.Body)
	if err != nil {
		return nil, err
	}

	r.body = body
	r.bodyRead = true
	return r.body, nil
}

// String returns the response body as a string.
func (r *Response) String() (string, error) {
	body, err := r.Body()
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DecodeJSON unmarshals the response body into target.
func (r *Response) DecodeJSON(target any) error {
	body, err := r.Body()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// decode fills the Decode target set on the builder.
func (r *Response) decode() error {
	if r.result == nil {
		return nil
	}
	body, err := r.Body()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, r.result)
}
