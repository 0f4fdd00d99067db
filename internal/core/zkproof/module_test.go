package zkproof

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	corelog "github.com/weisyn/poseidon-prover/internal/core/infrastructure/log"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
	zkif "github.com/weisyn/poseidon-prover/pkg/interfaces/zkproof"
)

// TestModule_SetupFailureShutsDown 公共参数无法获得时应用以退出码 1 关闭
func TestModule_SetupFailureShutsDown(t *testing.T) {
	opts := testOptions()
	opts.AllowUnsafeSetup = false
	opts.SRSPath = filepath.Join(t.TempDir(), "missing.srs")
	opts.ResultCache = false

	var readiness zkif.Readiness
	application := fx.New(
		fx.NopLogger,
		fx.Provide(func() log.Logger { return corelog.NewNop() }),
		fx.Supply(opts),
		Module(),
		fx.Populate(&readiness),
	)
	require.NoError(t, application.Err())

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, application.Start(startCtx))
	t.Cleanup(func() { _ = application.Stop(context.Background()) })

	select {
	case shutdown := <-application.Wait():
		assert.Equal(t, 1, shutdown.ExitCode)
	case <-time.After(time.Minute):
		t.Fatal("setup failure did not shut the application down")
	}
	assert.False(t, readiness.Ready())
}
