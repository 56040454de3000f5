// Package schema resolves rule selectors into gateway targets.
//
// A Schema is built once from protobuf descriptors, either compiled from
// .proto sources or read from a binary FileDescriptorSet. It indexes every
// service by its fully-qualified name together with a factory that creates
// a target for it, and remembers every package namespace so that lookups
// can report the first missing namespace segment.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ruteri/rest2grpc/interfaces"
	"github.com/ruteri/rest2grpc/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

var (
	// ErrNamespaceNotFound is returned when a selector namespace is not declared by any loaded file.
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrClassNotFound is returned when the namespace has no service with the requested name.
	ErrClassNotFound = errors.New("service not found")
)

// TargetFactory creates a target bound to address.
type TargetFactory func(address string, creds credentials.TransportCredentials, opts ...grpc.DialOption) (interfaces.Target, error)

// Schema is an index of the services declared by a set of protobuf files.
type Schema struct {
	files      *protoregistry.Files
	namespaces map[string]struct{}
	services   map[string]protoreflect.ServiceDescriptor
	factories  map[string]TargetFactory
}

// New indexes the services of files.
func New(files *protoregistry.Files) *Schema {
	s := &Schema{
		files:      files,
		namespaces: make(map[string]struct{}),
		services:   make(map[string]protoreflect.ServiceDescriptor),
		factories:  make(map[string]TargetFactory),
	}

	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		s.addNamespace(string(fd.Package()))
		services := fd.Services()
		for i := 0; i < services.Len(); i++ {
			s.addService(services.Get(i))
		}
		return true
	})
	return s
}

// FromDescriptors builds a Schema from file descriptors and their imports.
func FromDescriptors(fds ...protoreflect.FileDescriptor) (*Schema, error) {
	files := new(protoregistry.Files)
	for _, fd := range fds {
		if err := registerFile(files, fd); err != nil {
			return nil, err
		}
	}
	return New(files), nil
}

func registerFile(files *protoregistry.Files, fd protoreflect.FileDescriptor) error {
	if _, err := files.FindFileByPath(fd.Path()); err == nil {
		return nil
	}

	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		if err := registerFile(files, imports.Get(i).FileDescriptor); err != nil {
			return err
		}
	}

	if err := files.RegisterFile(fd); err != nil {
		return fmt.Errorf("registering %s: %w", fd.Path(), err)
	}
	return nil
}

func (s *Schema) addNamespace(pkg string) {
	if pkg == "" {
		return
	}
	parts := strings.Split(pkg, ".")
	for i := range parts {
		s.namespaces[strings.Join(parts[:i+1], ".")] = struct{}{}
	}
}

func (s *Schema) addService(sd protoreflect.ServiceDescriptor) {
	name := string(sd.FullName())
	s.services[name] = sd
	s.factories[name] = func(address string, creds credentials.TransportCredentials, opts ...grpc.DialOption) (interfaces.Target, error) {
		return rpc.NewServiceClient(sd, address, creds, opts...)
	}
}

// Files returns the underlying descriptor registry.
func (s *Schema) Files() *protoregistry.Files {
	return s.files
}

// Services returns the fully-qualified names of all indexed services, sorted.
func (s *Schema) Services() []string {
	names := make([]string, 0, len(s.services))
	for name := range s.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service returns the descriptor of the service with the given fully-qualified name.
func (s *Schema) Service(fullName string) (protoreflect.ServiceDescriptor, bool) {
	sd, ok := s.services[fullName]
	return sd, ok
}

// Lookup walks namespace one segment at a time and returns the factory of
// the named service inside it. An empty namespace is the root.
func (s *Schema) Lookup(namespace, class string) (TargetFactory, error) {
	if namespace != "" {
		prefix := ""
		for _, segment := range strings.Split(namespace, ".") {
			if prefix == "" {
				prefix = segment
			} else {
				prefix += "." + segment
			}
			if _, ok := s.namespaces[prefix]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, namespace)
			}
		}
	}

	name := class
	if namespace != "" {
		name = namespace + "." + class
	}
	factory, ok := s.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	return factory, nil
}

// Resolve looks up the service and creates one target for it bound to address.
func (s *Schema) Resolve(namespace, class, address string, creds credentials.TransportCredentials, opts ...grpc.DialOption) (interfaces.Target, error) {
	factory, err := s.Lookup(namespace, class)
	if err != nil {
		return nil, err
	}
	return factory(address, creds, opts...)
}
