package engineclient

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// fakeEngineHandler answers GetModelStatus using the same JSON codec the
// real client speaks, so the test exercises genuine gRPC dialing, codec
// negotiation, and deadline/status-code handling end to end.
type fakeEngineHandler struct {
	responses map[string]*GetModelStatusResponse
	notFound  map[string]bool
	internal  map[string]bool
}

func (h *fakeEngineHandler) handle(srv any, stream grpc.ServerStream) error {
	var req GetModelStatusRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}

	if h.notFound[req.ModelSpec.Name] {
		return status.Error(codes.NotFound, "no versions found")
	}
	if h.internal[req.ModelSpec.Name] {
		return status.Error(codes.Internal, "engine overloaded")
	}

	resp, ok := h.responses[req.ModelSpec.Name]
	if !ok {
		resp = &GetModelStatusResponse{}
	}
	return stream.SendMsg(resp)
}

func startFakeEngine(t *testing.T, h *fakeEngineHandler) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer(grpc.UnknownServiceHandler(h.handle))
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	return lis.Addr().String()
}

func TestClient_GetStatus_ReturnsParsedRecords(t *testing.T) {
	key := model.RecordKey{Framework: "tensorflow", Name: "A"}
	h := &fakeEngineHandler{
		responses: map[string]*GetModelStatusResponse{
			"A": {VersionStatus: []VersionStatus{
				{Version: "7", State: "AVAILABLE"},
				{Version: "8", State: "LOADING"},
			}},
		},
	}
	target := startFakeEngine(t, h)

	c, err := Dial(target, nil)
	require.NoError(t, err)
	defer c.Close()

	recs, err := c.GetStatus(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.Version(7), recs[0].Version)
	assert.Equal(t, model.StatusAvailable, recs[0].Status)
	assert.Equal(t, model.StatusLoading, recs[1].Status)
}

func TestClient_GetStatus_NotFoundReturnsEmptyNotError(t *testing.T) {
	key := model.RecordKey{Framework: "tensorflow", Name: "missing"}
	h := &fakeEngineHandler{notFound: map[string]bool{"missing": true}}
	target := startFakeEngine(t, h)

	c, err := Dial(target, nil)
	require.NoError(t, err)
	defer c.Close()

	recs, err := c.GetStatus(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, recs)
}

func TestClient_GetStatus_OtherRPCErrorReturnsEmptyNotError(t *testing.T) {
	key := model.RecordKey{Framework: "tensorflow", Name: "A"}
	h := &fakeEngineHandler{internal: map[string]bool{"A": true}}
	target := startFakeEngine(t, h)

	c, err := Dial(target, nil)
	require.NoError(t, err)
	defer c.Close()

	recs, err := c.GetStatus(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, recs)
}
