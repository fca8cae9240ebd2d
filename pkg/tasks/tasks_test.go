package tasks

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexadash/dcx/pkg/datacontext"
	"github.com/nexadash/dcx/pkg/querybuilder"
	"github.com/nexadash/dcx/pkg/refresher"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func TestRefreshPayloadUniqueID(t *testing.T) {
	p := RefreshPayload{Screen: "operations", Tenant: "acme"}
	assert.Equal(t, "screen:refresh:operations:acme", p.UniqueID())

	// Defaults-only tenant still yields a stable id
	p = RefreshPayload{Screen: "operations"}
	assert.Equal(t, "screen:refresh:operations:", p.UniqueID())
}

func TestRefreshPayloadUniqueIDIgnoresRequestID(t *testing.T) {
	a := RefreshPayload{Screen: "operations", Tenant: "acme", RequestID: "one"}
	b := RefreshPayload{Screen: "operations", Tenant: "acme", RequestID: "two"}

	assert.Equal(t, a.UniqueID(), b.UniqueID())
}

type recordingRefresher struct {
	calls []struct {
		tenant string
		screen string
	}
	err error
}

func (r *recordingRefresher) GetScreen(_ context.Context, _, _ string, _ refresher.GetOptions) (*refresher.ScreenResult, error) {
	return nil, nil
}

func (r *recordingRefresher) RefreshScreen(_ context.Context, tenantID, screenID string, _ querybuilder.FilterContext) (datacontext.Context, error) {
	r.calls = append(r.calls, struct {
		tenant string
		screen string
	}{tenant: tenantID, screen: screenID})

	return datacontext.Context{}, r.err
}

func (r *recordingRefresher) InvalidateScreen(_ context.Context, _ string) error { return nil }
func (r *recordingRefresher) Screens() map[string]*refresher.ScreenConfig       { return nil }

func TestHandleScreenRefresh(t *testing.T) {
	ref := &recordingRefresher{}
	handler := NewHandler(testLogger(), ref)

	payload, err := json.Marshal(RefreshPayload{Screen: "operations", Tenant: "acme", RequestID: "r1"})
	require.NoError(t, err)

	task := asynq.NewTask(TypeScreenRefresh, payload)
	require.NoError(t, handler.HandleScreenRefresh(context.Background(), task))

	require.Len(t, ref.calls, 1)
	assert.Equal(t, "acme", ref.calls[0].tenant)
	assert.Equal(t, "operations", ref.calls[0].screen)
}

func TestHandleScreenRefreshBadPayload(t *testing.T) {
	handler := NewHandler(testLogger(), &recordingRefresher{})

	task := asynq.NewTask(TypeScreenRefresh, []byte("{not json"))
	require.Error(t, handler.HandleScreenRefresh(context.Background(), task))
}

func TestHandleScreenRefreshPropagatesFailure(t *testing.T) {
	ref := &recordingRefresher{err: assert.AnError}
	handler := NewHandler(testLogger(), ref)

	payload, err := json.Marshal(RefreshPayload{Screen: "operations", Tenant: "acme"})
	require.NoError(t, err)

	task := asynq.NewTask(TypeScreenRefresh, payload)
	require.ErrorIs(t, handler.HandleScreenRefresh(context.Background(), task), assert.AnError)
}
