package assignment

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SlotKey
		wantErr bool
	}{
		{in: "2025-2026 T1", want: SlotKey{StartYear: 2025, Trimester: 1}},
		{in: "2025-2026-T3", want: SlotKey{StartYear: 2025, Trimester: 3}},
		{in: "2025-2026 t2", want: SlotKey{StartYear: 2025, Trimester: 2}},
		{in: "2024-T2", want: SlotKey{StartYear: 2024, Trimester: 2}},
		{in: "2025-2027 T1", wantErr: true},
		{in: "2025-2026 T4", wantErr: true},
		{in: "2025-2026 T0", wantErr: true},
		{in: "2025 T1", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSlotKey(tt.in)
			if tt.wantErr {
				assert.Equal(t, ErrInvalidKey, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlotKey_order(t *testing.T) {
	k := SlotKey{StartYear: 2025, Trimester: 1}
	assert.Equal(t, SlotKey{StartYear: 2024, Trimester: 3}, k.Previous())
	assert.Equal(t, k, SlotKey{StartYear: 2025, Trimester: 2}.Previous())
	assert.True(t, k.Previous().Before(k))
	assert.False(t, k.Before(k))
	assert.True(t, SlotKey{StartYear: 2024, Trimester: 3}.Before(SlotKey{StartYear: 2025, Trimester: 1}))
	assert.Equal(t, "2025-2026 T1", k.String())
	assert.Equal(t, "2025-2026-T1", k.URLString())
	assert.True(t, SlotKey{}.IsZero())
}

func TestSlotKey_json(t *testing.T) {
	slot := Slot{Key: SlotKey{StartYear: 2025, Trimester: 2}, Assignment: NewAssignment()}
	slot.Band1["Anna"] = "Holz"

	data, err := json.Marshal(slot)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"key":"2025-2026 T2"`)
	assert.Contains(t, string(data), `"band1":{"Anna":"Holz"}`)

	var got Slot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, slot.Key, got.Key)
	assert.Equal(t, slot.Band1, got.Band1)

	assert.Error(t, json.Unmarshal([]byte(`{"key":"nope"}`), &got))
}
