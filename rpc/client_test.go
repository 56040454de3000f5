package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/ruteri/rest2grpc/rpc"
	"github.com/ruteri/rest2grpc/rpc/rpctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newExampleClient(t *testing.T) *rpc.ServiceClient {
	t.Helper()
	sd := rpctest.ExampleService()
	opts := rpctest.NewServer(t, sd, rpctest.ExampleHandlers())

	client, err := rpc.NewServiceClient(sd, rpctest.Address, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestServiceClient_Invoke(t *testing.T) {
	client := newExampleClient(t)

	resp, err := client.Invoke(context.Background(), "SayHello", []byte(`{"name":"bob"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"msg":"Hello bob","count":"3"}`, string(resp))
}

func TestServiceClient_InvokeEmptyBody(t *testing.T) {
	client := newExampleClient(t)

	resp, err := client.Invoke(context.Background(), "SayHello", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"msg":"Hello world","count":"5"}`, string(resp))
}

func TestServiceClient_InvokeLowerCamelMethod(t *testing.T) {
	client := newExampleClient(t)

	resp, err := client.Invoke(context.Background(), "sayHello", []byte(`{"name":"al","unknown":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"msg":"Hello al","count":"2"}`, string(resp))
}

func TestServiceClient_InvokeErrors(t *testing.T) {
	client := newExampleClient(t)
	ctx := context.Background()

	_, err := client.Invoke(ctx, "Fail", []byte(`{}`))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Invoke(ctx, "Missing", []byte(`{}`))
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	_, err = client.Invoke(ctx, "StreamHellos", []byte(`{}`))
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	_, err = client.Invoke(ctx, "SayHello", []byte(`{"name":`))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServiceClient_Method(t *testing.T) {
	client := newExampleClient(t)

	md, err := client.Method("SayHello")
	require.NoError(t, err)
	assert.Equal(t, "/example.v1.Example/SayHello", rpc.FullMethodName(md))

	_, err = client.Method("sayGoodbye")
	assert.ErrorIs(t, err, rpc.ErrMethodNotFound)
}

func TestRegisterDynamicService_Errors(t *testing.T) {
	sd := rpctest.ExampleService()

	err := rpc.RegisterDynamicService(nil, sd, map[string]rpc.UnaryHandler{"Nope": nil})
	assert.ErrorIs(t, err, rpc.ErrMethodNotFound)

	err = rpc.RegisterDynamicService(nil, sd, map[string]rpc.UnaryHandler{"StreamHellos": nil})
	assert.ErrorIs(t, err, rpc.ErrStreamingUnsupported)
}

func TestStatusPayload(t *testing.T) {
	payload := rpc.StatusPayload(status.Error(codes.NotFound, "no such greeting"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.EqualValues(t, codes.NotFound, decoded["code"])
	assert.Equal(t, "no such greeting", decoded["message"])

	payload = rpc.StatusPayload(errors.New("plain"))
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.EqualValues(t, codes.Unknown, decoded["code"])
	assert.Equal(t, "plain", decoded["message"])
}

func TestHTTPStatusFromCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, rpc.HTTPStatusFromCode(codes.OK))
	assert.Equal(t, http.StatusNotFound, rpc.HTTPStatusFromCode(codes.NotFound))
	assert.Equal(t, http.StatusUnauthorized, rpc.HTTPStatusFromCode(codes.Unauthenticated))
	assert.Equal(t, http.StatusServiceUnavailable, rpc.HTTPStatusFromCode(codes.Unavailable))
	assert.Equal(t, http.StatusInternalServerError, rpc.HTTPStatusFromCode(codes.Code(99)))
}
