package store

import (
	"context"
	"testing"
)

type session struct {
	SID  string `json:"sid"`
	User string `json:"user,omitempty"`
}

func TestSetJSON_GetJSON(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	in := session{SID: "s-<1>&2", User: "ann"}
	if err := s.SetJSON(ctx, "login", in); err != nil {
		t.Fatalf("SetJSON() failed: %v", err)
	}

	raw, _, err := s.Get(ctx, "login")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	want := `{"sid":"s-<1>&2","user":"ann"}`
	if raw != want {
		t.Errorf("stored %q, want %q", raw, want)
	}

	var out session
	ok, err := s.GetJSON(ctx, "login", &out)
	if err != nil || !ok {
		t.Fatalf("GetJSON() = %v, %v", ok, err)
	}
	if out != in {
		t.Errorf("GetJSON() = %+v, want %+v", out, in)
	}
}

func TestGetJSON_Missing(t *testing.T) {
	s := createTestStore(t)

	out := session{SID: "untouched"}
	ok, err := s.GetJSON(context.Background(), "login", &out)
	if err != nil {
		t.Fatalf("GetJSON() failed: %v", err)
	}
	if ok {
		t.Error("GetJSON() reported a missing key as present")
	}
	if out.SID != "untouched" {
		t.Errorf("destination modified: %+v", out)
	}
}

func TestGetJSON_Invalid(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	if err := s.Set(ctx, "login", "{not json"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var out session
	if _, err := s.GetJSON(ctx, "login", &out); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSetJSON_Unsupported(t *testing.T) {
	s := createTestStore(t)

	if err := s.SetJSON(context.Background(), "bad", make(chan int)); err == nil {
		t.Error("expected error for unsupported value")
	}
}
