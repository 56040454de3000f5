package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/ruteri/rest2grpc/interfaces"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusPayload renders err as the JSON form of a google.rpc.Status message.
// Details that cannot be resolved are dropped.
func StatusPayload(err error) interfaces.Payload {
	st := status.Convert(err).Proto()
	if data, mErr := marshalOptions.Marshal(st); mErr == nil {
		return data
	}

	st.Details = nil
	if data, mErr := marshalOptions.Marshal(st); mErr == nil {
		return data
	}

	data, _ := json.Marshal(map[string]any{
		"code":    st.GetCode(),
		"message": st.GetMessage(),
		"details": []any{},
	})
	return data
}

// HTTPStatusFromCode maps a gRPC status code to the closest HTTP status code.
func HTTPStatusFromCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.Canceled:
		return 499
	case codes.Unknown:
		return http.StatusInternalServerError
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.Aborted:
		return http.StatusConflict
	case codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Internal:
		return http.StatusInternalServerError
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DataLoss:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
