package mpesa

import "fmt"

type ErrorKind int

const (
	// KindCredentials: the OAuth token could not be obtained or was refused.
	KindCredentials ErrorKind = iota + 1
	// KindRejected: the provider answered and declined the request.
	KindRejected
	// KindTransport: no usable answer (network, timeout, undecodable body).
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindCredentials:
		return "credentials"
	case KindRejected:
		return "rejected"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

type GatewayError struct {
	Kind    ErrorKind
	Op      string
	Code    string // provider errorCode or ResponseCode
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("mpesa %s %s [%s]: %s", e.Op, e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("mpesa %s %s: %s", e.Op, e.Kind, msg)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// apiError is the body Daraja sends with non-2xx responses.
type apiError struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}
