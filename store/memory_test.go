package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemorySetAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.SetField(ctx, "s1", "conflictScenario", "we argue about chores"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	doc, err := m.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var scenario string
	if err := json.Unmarshal(doc["conflictScenario"], &scenario); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if scenario != "we argue about chores" {
		t.Errorf("scenario = %q", scenario)
	}
}

func TestMemoryAppendCreatesArray(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, v := range []string{"a", "b", "c"} {
		if err := m.AppendToArrayField(ctx, "s1", "chatHistory", v); err != nil {
			t.Fatalf("append %q: %v", v, err)
		}
	}
	doc, err := m.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var arr []string
	if err := json.Unmarshal(doc["chatHistory"], &arr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(arr) != 3 || arr[0] != "a" || arr[2] != "c" {
		t.Errorf("array = %v", arr)
	}
}

func TestMemoryAppendToNonArray(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.SetField(ctx, "s1", "resetCount", 2); err != nil {
		t.Fatal(err)
	}
	if err := m.AppendToArrayField(ctx, "s1", "resetCount", "x"); err == nil {
		t.Fatal("appending to a scalar field should fail")
	}
}

func TestMemoryTimestampStamp(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.SetFieldWithTimestamp(ctx, "s1", "conversationCompleted", true); err != nil {
		t.Fatal(err)
	}
	doc, err := m.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["updatedAt"]; !ok {
		t.Error("updatedAt not stamped")
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.SetField(ctx, "s1", "a", 1); err != nil {
		t.Fatal(err)
	}
	doc, _ := m.Get(ctx, "s1")
	doc["a"] = json.RawMessage(`2`)
	fresh, _ := m.Get(ctx, "s1")
	var n int
	_ = json.Unmarshal(fresh["a"], &n)
	if n != 1 {
		t.Errorf("mutation of returned document leaked into store: a = %d", n)
	}
}
