package wire

import (
	"context"

	"github.com/litetable/widecolumn/pkg/model"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "widecolumn.v1.Store"

// StoreServer is implemented by the store server.
type StoreServer interface {
	ClusterInfo(context.Context, *ClusterInfoRequest) (*ClusterInfoResponse, error)
	ListTables(context.Context, *ListTablesRequest) (*ListTablesResponse, error)
	CreateTable(context.Context, *CreateTableRequest) (*Empty, error)
	DisableTable(context.Context, *TableRequest) (*Empty, error)
	EnableTable(context.Context, *TableRequest) (*Empty, error)
	IsTableEnabled(context.Context, *TableRequest) (*IsTableEnabledResponse, error)
	DeleteTable(context.Context, *TableRequest) (*Empty, error)
	AddFamily(context.Context, *FamilyRequest) (*Empty, error)
	DeleteFamily(context.Context, *FamilyRequest) (*Empty, error)
	ListFamilies(context.Context, *TableRequest) (*ListFamiliesResponse, error)
	Put(context.Context, *PutRequest) (*Empty, error)
	Get(context.Context, *GetRequest) (*RowResponse, error)
	Delete(context.Context, *DeleteRequest) (*Empty, error)
	Scan(*ScanRequest, ScanServer) error
}

// ScanServer is the server side of a Scan stream.
type ScanServer interface {
	Send(*model.Row) error
	Context() context.Context
}

type scanServer struct {
	grpc.ServerStream
}

func (s *scanServer) Send(r *model.Row) error {
	return s.ServerStream.SendMsg(r)
}

// ServiceDesc registers a StoreServer with a grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StoreServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ClusterInfo", StoreServer.ClusterInfo),
		unary("ListTables", StoreServer.ListTables),
		unary("CreateTable", StoreServer.CreateTable),
		unary("DisableTable", StoreServer.DisableTable),
		unary("EnableTable", StoreServer.EnableTable),
		unary("IsTableEnabled", StoreServer.IsTableEnabled),
		unary("DeleteTable", StoreServer.DeleteTable),
		unary("AddFamily", StoreServer.AddFamily),
		unary("DeleteFamily", StoreServer.DeleteFamily),
		unary("ListFamilies", StoreServer.ListFamilies),
		unary("Put", StoreServer.Put),
		unary("Get", StoreServer.Get),
		unary("Delete", StoreServer.Delete),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Scan",
			Handler:       scanHandler,
			ServerStreams: true,
		},
	},
	Metadata: "widecolumn/v1/store.proto",
}

// unary builds the method descriptor for a request/response call, running the server's
// interceptor chain when one is installed.
func unary[Req, Resp any](method string,
	call func(StoreServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error,
			interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StoreServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StoreServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func scanHandler(srv any, stream grpc.ServerStream) error {
	in := new(ScanRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(StoreServer).Scan(in, &scanServer{stream})
}

// StoreClient calls a remote StoreServer.
type StoreClient struct {
	cc grpc.ClientConnInterface
}

func NewStoreClient(cc grpc.ClientConnInterface) *StoreClient {
	return &StoreClient{cc: cc}
}

// CallOptions selects the JSON codec for a call.
func CallOptions(opts ...grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *StoreClient) invoke(ctx context.Context, method string, in, out any,
	opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, CallOptions(opts...)...)
}

func (c *StoreClient) ClusterInfo(ctx context.Context, in *ClusterInfoRequest,
	opts ...grpc.CallOption) (*ClusterInfoResponse, error) {
	out := new(ClusterInfoResponse)
	if err := c.invoke(ctx, "ClusterInfo", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StoreClient) ListTables(ctx context.Context, in *ListTablesRequest,
	opts ...grpc.CallOption) (*ListTablesResponse, error) {
	out := new(ListTablesResponse)
	if err := c.invoke(ctx, "ListTables", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StoreClient) CreateTable(ctx context.Context, in *CreateTableRequest,
	opts ...grpc.CallOption) error {
	return c.invoke(ctx, "CreateTable", in, new(Empty), opts...)
}

func (c *StoreClient) DisableTable(ctx context.Context, in *TableRequest,
	opts ...grpc.CallOption) error {
	return c.invoke(ctx, "DisableTable", in, new(Empty), opts...)
}

func (c *StoreClient) EnableTable(ctx context.Context, in *TableRequest,
	opts ...grpc.CallOption) error {
	return c.invoke(ctx, "EnableTable", in, new(Empty), opts...)
}

func (c *StoreClient) IsTableEnabled(ctx context.Context, in *TableRequest,
	opts ...grpc.CallOption) (*IsTableEnabledResponse, error) {
	out := new(IsTableEnabledResponse)
	if err := c.invoke(ctx, "IsTableEnabled", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StoreClient) DeleteTable(ctx context.Context, in *TableRequest,
	opts ...grpc.CallOption) error {
	return c.invoke(ctx, "DeleteTable", in, new(Empty), opts...)
}

func (c *StoreClient) AddFamily(ctx context.Context, in *FamilyRequest,
	opts ...grpc.CallOption) error {
	return c.invoke(ctx, "AddFamily", in, new(Empty), opts...)
}

func (c *StoreClient) DeleteFamily(ctx context.Context, in *FamilyRequest,
	opts ...grpc.CallOption) error {
	return c.invoke(ctx, "DeleteFamily", in, new(Empty), opts...)
}

func (c *StoreClient) ListFamilies(ctx context.Context, in *TableRequest,
	opts ...grpc.CallOption) (*ListFamiliesResponse, error) {
	out := new(ListFamiliesResponse)
	if err := c.invoke(ctx, "ListFamilies", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StoreClient) Put(ctx context.Context, in *PutRequest, opts ...grpc.CallOption) error {
	return c.invoke(ctx, "Put", in, new(Empty), opts...)
}

func (c *StoreClient) Get(ctx context.Context, in *GetRequest,
	opts ...grpc.CallOption) (*RowResponse, error) {
	out := new(RowResponse)
	if err := c.invoke(ctx, "Get", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StoreClient) Delete(ctx context.Context, in *DeleteRequest,
	opts ...grpc.CallOption) error {
	return c.invoke(ctx, "Delete", in, new(Empty), opts...)
}

// ScanClient is the client side of a Scan stream.
type ScanClient struct {
	stream grpc.ClientStream
}

// Scan opens a server stream. The request is sent before Scan returns; errors about the scan
// itself arrive on the first Recv.
func (c *StoreClient) Scan(ctx context.Context, in *ScanRequest,
	opts ...grpc.CallOption) (*ScanClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/Scan",
		CallOptions(opts...)...)
	if err != nil {
		return nil, err
	}
	if err = stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err = stream.CloseSend(); err != nil {
		return nil, err
	}
	return &ScanClient{stream: stream}, nil
}

// Recv returns the next row, or io.EOF once the server finished the stream.
func (s *ScanClient) Recv() (*model.Row, error) {
	r := new(model.Row)
	if err := s.stream.RecvMsg(r); err != nil {
		return nil, err
	}
	return r, nil
}
