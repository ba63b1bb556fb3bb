// Package grpcapi carries flow API calls over gRPC.
//
// Requests and responses are google.protobuf.Struct messages. A response
// struct holds the entity or entity list under "data" and listing metadata
// under "metadata". Failures travel as gRPC statuses and are converted into
// flow API errors with an HTTP-like status, so a call rejected with
// Unauthenticated surfaces as status 401.
package grpcapi
