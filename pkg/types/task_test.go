package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofTypeFromCode(t *testing.T) {
	cases := map[uint64]ProofType{
		0:   ProofTypeUndefined,
		1:   ProofTypeChunk,
		2:   ProofTypeBatch,
		3:   ProofTypeUndefined,
		99:  ProofTypeUndefined,
		255: ProofTypeUndefined,
	}
	for code, want := range cases {
		assert.Equal(t, want, ProofTypeFromCode(code), "code=%d", code)
	}
}

func TestProofType_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ProofType
		wantErr bool
	}{
		{"chunk", `1`, ProofTypeChunk, false},
		{"batch", `2`, ProofTypeBatch, false},
		{"undefined", `0`, ProofTypeUndefined, false},
		{"unknown", `99`, ProofTypeUndefined, false},
		{"huge", `18446744073709551616`, ProofTypeUndefined, false},
		{"negative", `-1`, ProofTypeUndefined, false},
		{"null", `null`, ProofTypeUndefined, false},
		{"string", `"1"`, ProofTypeUndefined, true},
		{"fraction", `1.5`, ProofTypeUndefined, true},
		{"object", `{}`, ProofTypeUndefined, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ProofType
			err := json.Unmarshal([]byte(tt.raw), &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTask_WireShape(t *testing.T) {
	raw := `{"uuid":"u-1","id":"t1","type":2,"task_data":"{}","hard_fork_name":"curie"}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))
	assert.Equal(t, "u-1", task.UUID)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, ProofTypeBatch, task.Type)
	assert.Equal(t, "{}", task.TaskData)
	assert.Equal(t, "curie", task.HardForkName)

	// type 与 hard_fork_name 缺省
	var bare Task
	require.NoError(t, json.Unmarshal([]byte(`{"uuid":"u","id":"x","task_data":""}`), &bare))
	assert.Equal(t, ProofTypeUndefined, bare.Type)
	assert.Empty(t, bare.HardForkName)
}

func TestProofDetail_Marshal(t *testing.T) {
	detail := ProofDetail{ID: "t2", Type: ProofTypeBatch, Error: "PubInputOutOfField: x"}
	out, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"t2","type":2,"proof_data":"","error":"PubInputOutOfField: x"}`, string(out))
	assert.False(t, detail.Succeeded())

	ok := ProofDetail{ID: "t1", Type: ProofTypeChunk, ProofData: "AAAA"}
	assert.True(t, ok.Succeeded())
}
