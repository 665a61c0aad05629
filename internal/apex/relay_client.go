package apex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/yesmonga/karting-sub000/internal/datasource"
	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/metrics"
)

const maxRelayBody = 4 << 20

// RelayClient polls a relay serving live snapshots as JSON and restores
// them into a local State. Within one relay epoch, responses are applied
// only when their sequence is newer than the local state, so overlapping
// polls completing out of order never roll the state back. A relay restart
// starts a new epoch whose first snapshot is always applied.
type RelayClient struct {
	url    string
	client *datasource.RateLimitedHTTPClient
	state  *State
	logger *logger.LiveLogger
}

// NewRelayClient creates a new relay client
func NewRelayClient(url string, client *datasource.RateLimitedHTTPClient, state *State, log *logger.LiveLogger) *RelayClient {
	if log == nil {
		log = logger.NewLiveLogger(logger.NewNopLogger())
	}
	return &RelayClient{url: url, client: client, state: state, logger: log}
}

// Poll fetches one snapshot and reports whether it was applied
func (r *RelayClient) Poll(ctx context.Context) (bool, error) {
	resp, err := r.client.Get(ctx, r.url)
	if err != nil {
		return false, fmt.Errorf("failed to poll relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("relay returned %d", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRelayBody)).Decode(&snap); err != nil {
		return false, fmt.Errorf("failed to decode relay snapshot: %w", err)
	}

	previous := r.state.Epoch()
	if !r.state.Restore(snap) {
		metrics.RecordStaleRelayResponse()
		r.logger.LogStaleRelay(snap.Sequence, r.state.Sequence())
		return false, nil
	}
	if snap.Epoch != "" && snap.Epoch != previous {
		r.logger.LogRelayEpoch(previous, snap.Epoch, snap.Sequence)
	}
	metrics.UpdateLiveState(snap.Sequence, len(snap.Rows))
	return true, nil
}

// State returns the local state fed by the relay
func (r *RelayClient) State() *State {
	return r.state
}
