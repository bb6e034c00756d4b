package models

import "testing"

func TestZonesFor(t *testing.T) {
	cases := []struct {
		meter MeterType
		want  []string
	}{
		{Single, []string{"standard"}},
		{DayNight, []string{"day", "night"}},
		{MultiZone, []string{"peak", "half-peak", "night"}},
		{"", []string{"standard"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.meter), func(t *testing.T) {
			got := ZonesFor(tc.meter)
			if len(got) != len(tc.want) {
				t.Fatalf("ZonesFor(%q) = %v, want %v", tc.meter, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("ZonesFor(%q) = %v, want %v", tc.meter, got, tc.want)
				}
			}
		})
	}
}

func TestAccountMeterDefaultsToSingle(t *testing.T) {
	var a Account
	if a.Meter() != Single {
		t.Fatalf("nil meter = %q", a.Meter())
	}
	bad := "triple"
	a.MeterType = &bad
	if a.Meter() != Single {
		t.Fatalf("invalid meter = %q", a.Meter())
	}
	dn := string(DayNight)
	a.MeterType = &dn
	if a.Meter() != DayNight {
		t.Fatalf("meter = %q", a.Meter())
	}
}

func TestZonesScan(t *testing.T) {
	var z Zones
	if err := z.Scan([]byte(`[{"name":"day","value":12.5},{"name":"night","value":3}]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if v, ok := z.Get("day"); !ok || v != 12.5 {
		t.Fatalf("day = %v, %v", v, ok)
	}
	if _, ok := z.Get("peak"); ok {
		t.Fatalf("peak should be missing")
	}
	if err := z.Scan(42); err == nil {
		t.Fatalf("scan int should fail")
	}
	var empty Zones
	v, err := empty.Value()
	if err != nil || string(v.([]byte)) != "[]" {
		t.Fatalf("nil zones value = %v, %v", v, err)
	}
}
