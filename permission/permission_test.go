package permission

import (
	"reflect"
	"testing"
)

func TestRegistryAssignsSequentialBits(t *testing.T) {
	r := NewRegistry(false)

	for i, name := range []string{"listing.create", "listing.manage", "viewing.manage"} {
		bit, err := r.Register(name)
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		if bit != i {
			t.Fatalf("expected bit %d for %s, got %d", i, name, bit)
		}
	}

	if _, err := r.Register("listing.create"); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if _, err := r.Register(""); err == nil {
		t.Fatal("expected empty name error")
	}

	r.Freeze()
	if _, err := r.Register("sales.report"); err == nil {
		t.Fatal("expected frozen registry error")
	}
	if r.Count() != 3 {
		t.Fatalf("expected 3 capabilities, got %d", r.Count())
	}
}

func TestRegistryRootReservedLimit(t *testing.T) {
	r := NewRegistry(true)
	for i := 0; i < MaxBits-1; i++ {
		if _, err := r.Register(string(rune('A'+i%26)) + string(rune('a'+i/26))); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	if _, err := r.Register("overflow"); err == nil {
		t.Fatal("expected limit error with root bit reserved")
	}
	if bit, ok := r.RootBit(); !ok || bit != MaxBits-1 {
		t.Fatalf("unexpected root bit %d %v", bit, ok)
	}
}

func TestMask64Bits(t *testing.T) {
	var m Mask64
	m.Set(0)
	m.Set(5)
	m.Set(63)
	m.Set(64)

	if got := m.Bits(); !reflect.DeepEqual(got, []int{0, 5, 63}) {
		t.Fatalf("unexpected bits %v", got)
	}
	if !m.Has(5, false) || m.Has(6, false) {
		t.Fatal("unexpected Has result")
	}
	if !m.Has(6, true) {
		t.Fatal("root bit must grant every capability when reserved")
	}

	m.Clear(5)
	if m.Has(5, false) || m.Count() != 2 {
		t.Fatalf("expected bit 5 cleared, mask=%b", uint64(m))
	}
}

func TestRoleManagerCapabilities(t *testing.T) {
	r := NewRegistry(false)
	for _, name := range []string{"property.save", "viewing.schedule", "listing.create"} {
		if _, err := r.Register(name); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	r.Freeze()

	rm := NewRoleManager(r)
	if err := rm.RegisterRole("visitor", []string{"viewing.schedule", "property.save"}); err != nil {
		t.Fatalf("register role: %v", err)
	}
	if err := rm.RegisterRole("agent", []string{"unknown.capability"}); err == nil {
		t.Fatal("expected unknown capability error")
	}
	if err := rm.RegisterRole("visitor", nil); err == nil {
		t.Fatal("expected duplicate role error")
	}
	rm.Freeze()
	if err := rm.RegisterRole("admin", nil); err == nil {
		t.Fatal("expected frozen error")
	}

	if got := rm.Capabilities("visitor"); !reflect.DeepEqual(got, []string{"property.save", "viewing.schedule"}) {
		t.Fatalf("capabilities must follow registration order, got %v", got)
	}
	if !rm.Has("visitor", "property.save") || rm.Has("visitor", "listing.create") {
		t.Fatal("unexpected Has result for visitor")
	}
	if rm.Has("ghost", "property.save") || rm.Capabilities("ghost") != nil {
		t.Fatal("unknown role must have no capabilities")
	}
	if rm.Count() != 1 {
		t.Fatalf("expected 1 role, got %d", rm.Count())
	}
}
