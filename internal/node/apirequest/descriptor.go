package apirequest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"time"

	"github.com/spf13/cast"
)

// Descriptor is a fully assembled request. It is built fresh for each call
// and never persisted.
type Descriptor struct {
	Method  string
	URL     string
	Headers map[string]string

	// Body is nil when no body is sent.
	Body any

	// Query holds query string parameters. Slice values are sent as
	// repeated keys.
	Query map[string]any

	// Timeout bounds this call. Zero uses the transport default.
	Timeout time.Duration
}

// NewDescriptor assembles a descriptor, dropping an empty body.
func NewDescriptor(method, target string, headers map[string]string, body any, query map[string]any) *Descriptor {
	d := &Descriptor{Method: method, URL: target, Headers: headers, Query: query}
	if !isEmptyBody(body) {
		d.Body = body
	}
	return d
}

// FullURL returns URL with Query appended. Parameters already present in
// URL are kept.
func (d *Descriptor) FullURL() (string, error) {
	if len(d.Query) == 0 {
		return d.URL, nil
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", d.URL, err)
	}

	values := u.Query()
	keys := make([]string, 0, len(d.Query))
	for k := range d.Query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := d.Query[k]
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				values.Add(k, cast.ToString(rv.Index(i).Interface()))
			}
			continue
		}
		values.Set(k, cast.ToString(v))
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// EncodeBody returns the JSON encoding of Body, or nil when there is none.
func (d *Descriptor) EncodeBody() ([]byte, error) {
	if d.Body == nil {
		return nil, nil
	}
	if raw, ok := d.Body.([]byte); ok {
		return raw, nil
	}
	data, err := json.Marshal(d.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, nil
}

// isEmptyBody reports whether body assembles to nothing: nil, or an empty
// map, slice or array.
func isEmptyBody(body any) bool {
	if body == nil {
		return true
	}
	rv := reflect.ValueOf(body)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
