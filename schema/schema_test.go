package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/rest2grpc/rpc"
	"github.com/ruteri/rest2grpc/rpc/rpctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
)

func exampleSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := FromDescriptors(rpctest.ExampleFile())
	require.NoError(t, err)
	return s
}

func TestSchema_Services(t *testing.T) {
	s := exampleSchema(t)
	assert.Equal(t, []string{"example.v1.Example"}, s.Services())

	sd, ok := s.Service("example.v1.Example")
	require.True(t, ok)
	assert.Equal(t, 3, sd.Methods().Len())

	_, ok = s.Service("example.v1.Missing")
	assert.False(t, ok)
}

func TestSchema_Lookup(t *testing.T) {
	s := exampleSchema(t)

	factory, err := s.Lookup("example.v1", "Example")
	require.NoError(t, err)
	assert.NotNil(t, factory)
}

func TestSchema_LookupNamespaceNotFound(t *testing.T) {
	s := exampleSchema(t)

	for _, namespace := range []string{"other", "example.v2", "example.v1.inner", "v1"} {
		_, err := s.Lookup(namespace, "Example")
		require.ErrorIs(t, err, ErrNamespaceNotFound, namespace)
		assert.Contains(t, err.Error(), namespace)
	}
}

func TestSchema_LookupClassNotFound(t *testing.T) {
	s := exampleSchema(t)

	_, err := s.Lookup("example.v1", "Missing")
	assert.ErrorIs(t, err, ErrClassNotFound)

	// "example" is a namespace but holds no services itself.
	_, err = s.Lookup("example", "Example")
	assert.ErrorIs(t, err, ErrClassNotFound)

	// The root namespace only holds services declared without a package.
	_, err = s.Lookup("", "Example")
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestSchema_Resolve(t *testing.T) {
	s := exampleSchema(t)
	sd := rpctest.ExampleService()
	opts := rpctest.NewServer(t, sd, rpctest.ExampleHandlers())

	target, err := s.Resolve("example.v1", "Example", rpctest.Address, nil, opts...)
	require.NoError(t, err)
	defer target.Close()

	client, ok := target.(*rpc.ServiceClient)
	require.True(t, ok)
	assert.Equal(t, sd.FullName(), client.Service().FullName())

	resp, err := target.Invoke(context.Background(), "SayHello", []byte(`{"name":"ann"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"msg":"Hello ann","count":"3"}`, string(resp))
}

func TestSchema_ResolveEachCallCreatesTarget(t *testing.T) {
	s := exampleSchema(t)

	a, err := s.Resolve("example.v1", "Example", "localhost:50051", nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := s.Resolve("example.v1", "Example", "localhost:50052", nil)
	require.NoError(t, err)
	defer b.Close()

	assert.NotSame(t, a, b)
}

func TestLoad(t *testing.T) {
	s, err := Load(context.Background(), []string{"testdata"}, "example/v1/example.proto")
	require.NoError(t, err)
	assert.Equal(t, []string{"example.v1.Example"}, s.Services())

	_, err = s.Files().FindFileByPath("google/protobuf/timestamp.proto")
	assert.NoError(t, err)

	_, err = s.Lookup("example.v1", "Example")
	assert.NoError(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), []string{"testdata"}, "missing.proto")
	assert.Error(t, err)
}

func TestLoadDescriptorSet(t *testing.T) {
	set := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{protodesc.ToFileDescriptorProto(rpctest.ExampleFile())},
	}
	data, err := proto.Marshal(set)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "example.pb")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	s, err := LoadDescriptorSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.v1.Example"}, s.Services())

	_, err = LoadDescriptorSet(filepath.Join(t.TempDir(), "missing.pb"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "garbage.pb")
	require.NoError(t, os.WriteFile(garbage, []byte{0xff, 0xff, 0xff}, 0o600))
	_, err = LoadDescriptorSet(garbage)
	assert.Error(t, err)
}
