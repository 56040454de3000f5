package common

// Version is overridden at build time with -ldflags "-X github.com/ruteri/rest2grpc/common.Version=...".
var Version = "dev"

// PackageName is used as the metrics namespace.
const PackageName = "rest2grpc"
