package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

/*
 * RuleSetSync service registration.
 *
 * The service exchanges well-known protobuf types only, so it needs no
 * generated code: requests and responses are Empty, StringValue, Struct and
 * ListValue, and the descriptor below is registered by hand.
 *
 *   ListRuleSets(Empty) -> ListValue      one summary Struct per saved rule set
 *   GetRuleSet(StringValue) -> Struct     full rule set document
 *   EvaluateRuleSet(Struct) -> Struct     {name, answers} -> evaluation
 */

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "skiplogic.sync.v1.RuleSetSync"

// Full method names, as seen by interceptors.
const (
	MethodListRuleSets    = "/" + ServiceName + "/ListRuleSets"
	MethodGetRuleSet      = "/" + ServiceName + "/GetRuleSet"
	MethodEvaluateRuleSet = "/" + ServiceName + "/EvaluateRuleSet"
)

// RuleSetSyncServer is the server API for the RuleSetSync service.
type RuleSetSyncServer interface {
	ListRuleSets(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetRuleSet(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	EvaluateRuleSet(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RuleSetSyncServiceDesc describes the RuleSetSync service for grpc.Server.
var RuleSetSyncServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RuleSetSyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRuleSets", Handler: listRuleSetsHandler},
		{MethodName: "GetRuleSet", Handler: getRuleSetHandler},
		{MethodName: "EvaluateRuleSet", Handler: evaluateRuleSetHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skiplogic/sync/v1/rulesets.proto",
}

// RegisterRuleSetSyncServer registers srv on s.
func RegisterRuleSetSyncServer(s grpc.ServiceRegistrar, srv RuleSetSyncServer) {
	s.RegisterService(&RuleSetSyncServiceDesc, srv)
}

func listRuleSetsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuleSetSyncServer).ListRuleSets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListRuleSets}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuleSetSyncServer).ListRuleSets(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getRuleSetHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuleSetSyncServer).GetRuleSet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetRuleSet}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuleSetSyncServer).GetRuleSet(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func evaluateRuleSetHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuleSetSyncServer).EvaluateRuleSet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodEvaluateRuleSet}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RuleSetSyncServer).EvaluateRuleSet(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RuleSetSyncClient calls the RuleSetSync service.
type RuleSetSyncClient struct {
	cc grpc.ClientConnInterface
}

// NewRuleSetSyncClient creates a client over cc.
func NewRuleSetSyncClient(cc grpc.ClientConnInterface) *RuleSetSyncClient {
	return &RuleSetSyncClient{cc: cc}
}

func (c *RuleSetSyncClient) ListRuleSets(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, MethodListRuleSets, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RuleSetSyncClient) GetRuleSet(ctx context.Context, name string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetRuleSet, wrapperspb.String(name), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RuleSetSyncClient) EvaluateRuleSet(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodEvaluateRuleSet, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
