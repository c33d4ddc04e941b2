package driver

import (
	"testing"

	"powerband"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"antminer", TypeAntminer},
		{" Antminer ", TypeAntminer},
		{"WHATSMINER", TypeWhatsminer},
		{"braiins", TypeBraiins},
		{"acme-3000", TypeUnknown},
		{"", TypeUnknown},
		{"unknown", TypeUnknown},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLookup_KnownTypesHaveLowPowerModes(t *testing.T) {
	for _, typ := range KnownTypes() {
		cap := Lookup(typ)
		if len(cap.Modes) == 0 {
			t.Fatalf("type %s: expected declared modes", typ)
		}
		if cap.LowestPowerMode == "" {
			t.Fatalf("type %s: expected a lowest power mode", typ)
		}
		if !cap.Supports(cap.LowestPowerMode) {
			t.Fatalf("type %s: lowest power mode must be in Modes", typ)
		}
		if !cap.ChampionEligible() {
			t.Fatalf("type %s: expected champion eligibility", typ)
		}
		if cap.NominalWatts <= 0 {
			t.Fatalf("type %s: expected a nominal wattage", typ)
		}
	}
}

func TestLookup_UnknownIsOnOffOnly(t *testing.T) {
	cap := Lookup("no-such-vendor")
	if len(cap.Modes) != 0 || cap.LowestPowerMode != "" {
		t.Fatalf("unknown type must have no modes, got %+v", cap)
	}
	if cap.ChampionEligible() {
		t.Fatalf("unknown type must never be champion eligible")
	}
	if cap.Supports("eco") {
		t.Fatalf("unknown type must support no mode")
	}
}

func TestStdFactory_OpensByType(t *testing.T) {
	f := NewFactory()

	d, err := f.Open(powerband.EnrolledMiner{ID: "b1", Type: "braiins", Address: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Open(braiins) error = %v", err)
	}
	if _, ok := d.(*braiinsDriver); !ok {
		t.Fatalf("expected a braiins driver, got %T", d)
	}

	d, err = f.Open(powerband.EnrolledMiner{ID: "a1", Type: "antminer", Address: "10.0.0.2:4028"})
	if err != nil {
		t.Fatalf("Open(antminer) error = %v", err)
	}
	cg, ok := d.(*cgminerDriver)
	if !ok {
		t.Fatalf("expected a cgminer driver, got %T", d)
	}
	if cg.powerOnly {
		t.Fatalf("antminer driver must have full mode control")
	}

	d, err = f.Open(powerband.EnrolledMiner{ID: "x1", Type: "acme-3000", Address: "10.0.0.3:4028"})
	if err != nil {
		t.Fatalf("Open(unknown) error = %v", err)
	}
	cg, ok = d.(*cgminerDriver)
	if !ok {
		t.Fatalf("expected a generic cgminer driver, got %T", d)
	}
	if !cg.powerOnly {
		t.Fatalf("unknown type must be restricted to on/off control")
	}
}
