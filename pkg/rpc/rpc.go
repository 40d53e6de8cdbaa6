// Package rpc carries JSON-shaped request and response payloads over gRPC as
// google.protobuf.Struct messages, so services can be registered from plain
// Go DTOs without generated stubs.
package rpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler serves one unary method on behalf of a service implementation.
type Handler[Req any, Resp any] func(ctx context.Context, req *Req) (*Resp, error)

// Unary adapts a typed handler into a grpc.MethodDesc.
func Unary[Req any, Resp any](service, method string, h Handler[Req, Resp]) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req interface{}) (interface{}, error) {
				return invoke(ctx, req.(*structpb.Struct), h)
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, call)
		},
	}
}

func invoke[Req any, Resp any](ctx context.Context, in *structpb.Struct, h Handler[Req, Resp]) (*structpb.Struct, error) {
	req := new(Req)
	if err := Decode(in, req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	resp, err := h(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := Encode(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// Decode copies a Struct into v through its json representation.
func Decode(in *structpb.Struct, v interface{}) error {
	data, err := in.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Encode converts v into a Struct. v must encode to a json object.
func Encode(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return out, nil
}

// Invoke calls a Struct-payload method on a client connection.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, service, method string, req, resp interface{}) error {
	in, err := Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, "/"+service+"/"+method, in, out); err != nil {
		return err
	}
	return Decode(out, resp)
}
