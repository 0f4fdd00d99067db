package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/poseidon-prover/internal/api/http/handlers"
	apiconfig "github.com/weisyn/poseidon-prover/internal/config/api"
	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/internal/core/zkproof"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// fakeProver 可控的证明入口
type fakeProver struct {
	ready bool
	err   error
	last  *types.Task
}

func (f *fakeProver) Handle(ctx context.Context, task *types.Task) (*types.ProofDetail, error) {
	f.last = task
	if f.err != nil {
		return nil, f.err
	}
	if task.Type == types.ProofTypeBatch {
		return &types.ProofDetail{ID: task.ID, Type: task.Type, Error: "PubInputOutOfField: too big"}, nil
	}
	return &types.ProofDetail{ID: task.ID, Type: task.Type, ProofData: "AAEC"}, nil
}

func (f *fakeProver) Ready() bool { return f.ready }

func (f *fakeProver) Status() interface{} {
	return map[string]interface{}{"srs_source": "unsafe"}
}

func newTestServer(prover *fakeProver) *Server {
	options := apiconfig.New(nil).GetOptions().HTTP
	options.MaxRequestSize = 1024
	return NewServer(&options, corelog.NewNop(), prover, prover, prover)
}

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestProve_Success(t *testing.T) {
	prover := &fakeProver{ready: true}
	s := newTestServer(prover)

	for _, path := range []string{"/", "/api/v1/prove"} {
		w := post(t, s, path, `{"uuid":"u","id":"t1","type":1,"task_data":"{}","hard_fork_name":"curie"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"id":"t1","type":1,"proof_data":"AAEC","error":""}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
	assert.Equal(t, "curie", prover.last.HardForkName)
}

func TestProve_StageFailureIs200(t *testing.T) {
	s := newTestServer(&fakeProver{ready: true})

	w := post(t, s, "/", `{"uuid":"u","id":"t2","type":2,"task_data":"{}"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var detail types.ProofDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "t2", detail.ID)
	assert.Equal(t, types.ProofTypeBatch, detail.Type)
	assert.Empty(t, detail.ProofData)
	assert.True(t, strings.HasPrefix(detail.Error, "PubInputOutOfField"))
}

func TestProve_UnknownTypeDecodesUndefined(t *testing.T) {
	prover := &fakeProver{ready: true}
	s := newTestServer(prover)

	w := post(t, s, "/", `{"uuid":"u","id":"t3","type":7,"task_data":"{}"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.ProofTypeUndefined, prover.last.Type)
}

func TestProve_BadRequests(t *testing.T) {
	s := newTestServer(&fakeProver{ready: true})

	w := post(t, s, "/", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, s, "/", `{"id":"t","type":"chunk","task_data":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, handlers.ErrInvalidArgument, resp.Error.Code)

	big := `{"id":"t","type":1,"task_data":"` + strings.Repeat("a", 4096) + `"}`
	w = post(t, s, "/", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestProve_HostErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{zkproof.ErrParamsNotReady, http.StatusServiceUnavailable},
		{zkproof.ErrPoolStopped, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s := newTestServer(&fakeProver{ready: true, err: tt.err})
		w := post(t, s, "/", `{"id":"t","type":1,"task_data":"{}"}`)
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}

func TestHealth(t *testing.T) {
	prover := &fakeProver{}
	s := newTestServer(prover)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get("/health/live").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/health/ready").Code)

	prover.ready = true
	assert.Equal(t, http.StatusOK, get("/health/ready").Code)

	w := get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]interface{}{"srs_source": "unsafe"}, body["prover"])

	w = get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("poseidon_prover_")))
}

func TestServer_StartStop(t *testing.T) {
	options := apiconfig.New(nil).GetOptions().HTTP
	options.Host = "127.0.0.1"
	options.Port = 0
	prover := &fakeProver{ready: true}
	s := NewServer(&options, corelog.NewNop(), prover, prover, prover)

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
