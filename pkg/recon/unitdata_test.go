package recon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fle"
)

func TestReconcile(t *testing.T) {
	repo, defs := breakdownFixture()
	bd := BuildBreakdown(repo, defs, []string{"Q1", "Q2"})

	fleSet, err := fle.Parse(strings.NewReader(`{"Registers":[{"SpecialFuses":{"LockoutBits":[{"fuseNames":["HIGH"]}]}}]}`))
	require.NoError(t, err)

	expected := NewExpectedValues()
	expected.Set("V2", expectedKey("LOW", "CPU0"), "12")

	r := &Reconciler{
		Units: map[string]map[string]string{
			"V1": {"CPU0": "10100101"},
			"V2": {"CPU0": "00001100"},
		},
		VisualIDs: []string{"V1", "V2", "V3"},
		Expected:  expected,
		FLE:       fleSet,
	}

	rows := r.Reconcile("Q1", bd.Rows)
	require.Len(t, rows, 4)

	low := rows[0].Results
	require.Len(t, low, 3)

	require.Equal(t, Static, low[0].Classification)
	require.Equal(t, "b0101", low[0].BinaryField())
	require.Equal(t, "0X5", low[0].HexField())
	require.Equal(t, NotAvailable, low[0].DFFValue)

	require.Equal(t, Dynamic, low[1].Classification)
	require.Equal(t, "0XC", low[1].Hex)
	require.Equal(t, "12", low[1].DFFValue)

	require.Equal(t, Mismatch, low[2].Classification)
	require.Equal(t, NotAvailable, low[2].BinaryField())
	require.Equal(t, NotAvailable, low[2].HexField())

	high := rows[1].Results
	for _, res := range high {
		require.Equal(t, FLE, res.Classification)
		require.Equal(t, FLEValue, res.DFFValue)
	}

	orphan := rows[3].Results
	require.Equal(t, Mismatch, orphan[0].Classification)

	sortRows := r.Reconcile("Q2", bd.Rows)
	require.Equal(t, Sort, sortRows[0].Results[0].Classification)
	require.Equal(t, SortSkipValue, sortRows[0].Results[0].DFFValue)

	counts := Summary(rows)
	require.Equal(t, 1, counts[Static])
	require.Equal(t, 1, counts[Dynamic])
	require.Equal(t, 3, counts[FLE])
}

func TestReconcileWithoutSources(t *testing.T) {
	repo, defs := breakdownFixture()
	bd := BuildBreakdown(repo, defs, []string{"Q1"})

	r := &Reconciler{Units: map[string]map[string]string{"V": {"CPU0": "10100101"}}, VisualIDs: []string{"V"}}
	require.False(t, r.HasDFF())

	res := r.Fuse("V", "Q1", bd.Rows[1])
	require.Equal(t, Static, res.Classification)
	require.Equal(t, "1010", res.Binary)
}
