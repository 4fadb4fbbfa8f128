package errors

import (
	"errors"
	"fmt"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	// Remote object store diagnostics, present when the chain contains a
	// blob transport failure.
	StoreStatus int    `json:"store_status,omitempty"`
	StoreMethod string `json:"store_method,omitempty"`
	StoreURL    string `json:"store_url,omitempty"`
}

// transportDetails is implemented by pkg/blob's TransportError; declared here
// to avoid the import.
type transportDetails interface {
	StatusCode() int
	Method() string
	URL() string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var transport transportDetails
	if errors.As(err, &transport) {
		d.StoreStatus = transport.StatusCode()
		d.StoreMethod = transport.Method()
		d.StoreURL = transport.URL()
	}

	return d
}
