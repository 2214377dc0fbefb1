package param

import "testing"

func TestOscillatorIDs(t *testing.T) {
	id := Oscillator(1, OscVolume)
	if id != 113 {
		t.Fatalf("Oscillator(1, OscVolume) = %d, want 113", id)
	}

	index, field, ok := id.Oscillator()
	if !ok || index != 1 || field != OscVolume {
		t.Fatalf("split = %d, %v, %v", index, field, ok)
	}

	if _, _, ok := ID(108).Oscillator(); ok {
		t.Fatal("unused oscillator slot 108 must not decode")
	}

	if _, _, ok := ID(200).Oscillator(); ok {
		t.Fatal("generic CC ID decoded as oscillator")
	}
}

func TestNamespaces(t *testing.T) {
	tests := []struct {
		id   ID
		want Namespace
	}{
		{MasterVolume, NamespaceMaster},
		{PadY, NamespaceMaster},
		{FilterType, NamespaceFilter},
		{ReleaseTime, NamespaceEnvelope},
		{DelayFeedback, NamespaceEffects},
		{GranularWindowType, NamespaceGranular},
		{Oscillator(0, OscType), NamespaceOscillator},
		{319, NamespaceGenericCC},
		{320, NamespaceUnknown},
		{-1, NamespaceUnknown},
	}

	for _, tt := range tests {
		if got := tt.id.Namespace(); got != tt.want {
			t.Errorf("%d.Namespace() = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(DelayFeedback)
	if !ok || info.Name != "delayFeedback" || info.Max != 0.99 {
		t.Fatalf("Lookup(DelayFeedback) = %+v, %v", info, ok)
	}

	if got := info.Clamp(2); got != 0.99 {
		t.Fatalf("Clamp(2) = %v", got)
	}

	info, ok = Lookup(Oscillator(0, OscFrequency))
	if !ok || info.Name != "osc1.frequency" {
		t.Fatalf("oscillator lookup = %+v, %v", info, ok)
	}

	if _, ok := Lookup(13); ok {
		t.Fatal("Lookup(13) must fail")
	}

	id, ok := GenericCC(74)
	if !ok || id != 274 || id.String() != "cc74" {
		t.Fatalf("GenericCC(74) = %d (%s), %v", id, id, ok)
	}

	if _, ok := GenericCC(120); ok {
		t.Fatal("GenericCC(120) must fail")
	}
}
