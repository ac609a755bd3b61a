package cpuid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHost_SatisfiesInfo(t *testing.T) {
	var info Info = Host
	_ = info
}

// TestHost_SSE2IsAlwaysAvailable covers the baseline every amd64 target Go
// itself requires (spec.md §6): Has(FeatureSSE2) must never depend on the
// host CPU's actual flags.
func TestHost_SSE2IsAlwaysAvailable(t *testing.T) {
	require.True(t, Host.Has(FeatureSSE2))
}

func TestHost_UnknownFeatureIsFalse(t *testing.T) {
	require.False(t, Host.Has(Feature(999)))
}

func TestHost_VendorStringIsNonEmptyAndMentionsArch(t *testing.T) {
	s := Host.VendorString()
	require.NotEmpty(t, s)
	require.True(t, strings.HasPrefix(s, "x86_64"))
}

// TestHost_LZCNTImpliedByBMI1 documents the fallback noted in cpuid.go: this
// package has no direct LZCNT probe, so it reports LZCNT support whenever
// BMI1 is present.
func TestHost_LZCNTImpliedByBMI1(t *testing.T) {
	require.Equal(t, Host.Has(FeatureBMI1), Host.Has(FeatureLZCNT))
}
