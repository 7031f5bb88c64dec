package factory

import (
	"testing"
	"time"
)

type sink struct {
	Name    string
	Timeout time.Duration
	Port    int
}

type sinkConf struct {
	Name    string        `json:"name"`
	Timeout time.Duration `json:"timeout"`
	Port    int           `json:"port"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sink]()
	if err := reg.Register("csv", func(conf map[string]any) (*sink, error) {
		var c sinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sink{Name: c.Name, Timeout: c.Timeout, Port: c.Port}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "csv", Conf: map[string]any{"name": "out", "timeout": "2s", "port": "9100"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Name != "out" || inst.Timeout != 2*time.Second || inst.Port != 9100 {
		t.Fatalf("unexpected sink %+v", inst)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); err == nil {
		t.Fatal("expected unknown type error")
	}
	if got := reg.Types(); len(got) != 1 || got[0] != "x" {
		t.Fatalf("unexpected types %v", got)
	}
}
