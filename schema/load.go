package schema

import (
	"context"
	"fmt"
	"os"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Load compiles the given .proto files, resolving imports against
// importPaths. The well-known google/protobuf imports are always available.
func Load(ctx context.Context, importPaths []string, files ...string) (*Schema, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: importPaths,
		}),
	}

	compiled, err := compiler.Compile(ctx, files...)
	if err != nil {
		return nil, fmt.Errorf("compiling %v: %w", files, err)
	}

	fds := make([]protoreflect.FileDescriptor, 0, len(compiled))
	for _, f := range compiled {
		fds = append(fds, f)
	}
	return FromDescriptors(fds...)
}

// LoadDescriptorSet reads a binary FileDescriptorSet, as written by
// protoc --include_imports --descriptor_set_out.
func LoadDescriptorSet(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor set %s: %w", path, err)
	}

	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decoding descriptor set %s: %w", path, err)
	}

	files, err := protodesc.NewFiles(&set)
	if err != nil {
		return nil, fmt.Errorf("linking descriptor set %s: %w", path, err)
	}
	return New(files), nil
}
