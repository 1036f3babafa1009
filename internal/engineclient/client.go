package engineclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// statusDeadline is the fixed per-call deadline for the engine's status
// RPC: the engine is co-located, so anything slower than this means it is
// unhealthy, not merely busy.
const statusDeadline = 500 * time.Millisecond

// getModelStatusMethod is the engine's standard status RPC, addressed
// directly (no generated service descriptor) since the call is invoked
// through the JSON codec registered in codec.go.
const getModelStatusMethod = "/tensorflow.serving.ModelService/GetModelStatus"

// ModelSpec identifies a model by name to the engine's status RPC.
type ModelSpec struct {
	Name string `json:"name"`
}

// GetModelStatusRequest is the request message for the engine's status RPC.
type GetModelStatusRequest struct {
	ModelSpec ModelSpec `json:"model_spec"`
}

// VersionStatus is one entry of the engine's status response: a version
// number and its lifecycle state name.
type VersionStatus struct {
	Version string `json:"version"`
	State   string `json:"state"`
}

// GetModelStatusResponse is the response message for the engine's status
// RPC.
type GetModelStatusResponse struct {
	VersionStatus []VersionStatus `json:"version_status"`
}

// Client talks to one co-located serving engine instance.
type Client struct {
	conn   *grpc.ClientConn
	logger *slog.Logger
}

// Dial opens a connection to target (host:port). The engine is reached
// over a private network segment, so the channel is unauthenticated
// (insecure transport credentials).
func Dial(target string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("engineclient: dialing %s: %w", target, err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GetStatus fetches the engine's current view for key, translated into
// ServingRecords. A NOT_FOUND response means the engine has no versions
// loaded for key: this returns (nil, nil), not an error. Any other gRPC
// error is logged and also returns (nil, nil); the caller must treat a
// missing key as "engine hasn't caught up yet", never as grounds to delete
// local data. Codec and deadline failures reach this method as gRPC status
// errors and take that same path; only an error that carries no gRPC status
// is propagated.
func (c *Client) GetStatus(ctx context.Context, key model.RecordKey) ([]model.ServingRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, statusDeadline)
	defer cancel()

	req := &GetModelStatusRequest{ModelSpec: ModelSpec{Name: key.Name}}
	resp := &GetModelStatusResponse{}

	err := c.conn.Invoke(ctx, getModelStatusMethod, req, resp, grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		if st, ok := status.FromError(err); ok {
			if st.Code() == codes.NotFound {
				return nil, nil
			}
			c.logger.Error("engineclient: status rpc failed", "key", key, "code", st.Code(), "error", st.Message())
			return nil, nil
		}
		return nil, fmt.Errorf("engineclient: calling status rpc for %s: %w", key, err)
	}

	records := make([]model.ServingRecord, 0, len(resp.VersionStatus))
	for _, vs := range resp.VersionStatus {
		version, convErr := parseVersion(vs.Version)
		if convErr != nil {
			c.logger.Warn("engineclient: skipping unparseable version in status response", "key", key, "version", vs.Version)
			continue
		}
		records = append(records, model.ServingRecord{
			Record: model.NewRecord(key, version),
			Status: model.ParseServingStatus(vs.State),
		})
	}
	return records, nil
}

func parseVersion(s string) (model.Version, error) {
	var v int64
	_, err := fmt.Sscanf(s, "%d", &v)
	if err != nil {
		return 0, err
	}
	return model.Version(v), nil
}
