package safety

import (
	"sync"
	"testing"
	"time"
)

func TestNewDryRunRecorder(t *testing.T) {
	recorder := NewDryRunRecorder()
	if recorder == nil {
		t.Fatal("NewDryRunRecorder() returned nil")
	}

	if recorder.Count() != 0 {
		t.Errorf("Expected Count()=0, got %d", recorder.Count())
	}
}

func TestRecordOperation(t *testing.T) {
	recorder := NewDryRunRecorder()

	op := PlannedOperation{
		Type:         OpTypeArchive,
		ResourceID:   "msg123",
		ResourceName: "Q3 roadmap",
		Description:  "Archive: Q3 roadmap",
	}

	recorder.RecordOperation(op)

	if recorder.Count() != 1 {
		t.Errorf("Expected Count()=1, got %d", recorder.Count())
	}

	ops := recorder.GetOperations()
	if len(ops) != 1 {
		t.Fatalf("Expected 1 operation, got %d", len(ops))
	}

	if ops[0].Type != OpTypeArchive {
		t.Errorf("Expected Type=%s, got %s", OpTypeArchive, ops[0].Type)
	}
	if ops[0].ResourceID != "msg123" {
		t.Errorf("Expected ResourceID=msg123, got %s", ops[0].ResourceID)
	}
}

func TestRecordOperationSetsTimestamp(t *testing.T) {
	recorder := NewDryRunRecorder()

	op := PlannedOperation{
		Type:       OpTypeArchive,
		ResourceID: "msg123",
	}

	before := time.Now()
	recorder.RecordOperation(op)
	after := time.Now()

	ops := recorder.GetOperations()
	if ops[0].Timestamp.IsZero() {
		t.Error("Expected Timestamp to be set")
	}
	if ops[0].Timestamp.Before(before) || ops[0].Timestamp.After(after) {
		t.Errorf("Timestamp %v is not between %v and %v", ops[0].Timestamp, before, after)
	}
}

func TestClear(t *testing.T) {
	recorder := NewDryRunRecorder()

	recorder.RecordOperation(PlannedOperation{Type: OpTypeArchive, ResourceID: "1"})
	recorder.RecordOperation(PlannedOperation{Type: OpTypeSend, ResourceID: "2"})

	if recorder.Count() != 2 {
		t.Errorf("Expected Count()=2, got %d", recorder.Count())
	}

	recorder.Clear()

	if recorder.Count() != 0 {
		t.Errorf("Expected Count()=0 after Clear(), got %d", recorder.Count())
	}
}

func TestGetOperationsReturnsCopy(t *testing.T) {
	recorder := NewDryRunRecorder()

	recorder.RecordOperation(PlannedOperation{Type: OpTypeArchive, ResourceID: "1"})

	ops1 := recorder.GetOperations()
	ops2 := recorder.GetOperations()

	ops1[0].ResourceID = "modified"

	if ops2[0].ResourceID != "1" {
		t.Error("GetOperations() should return a copy, not a reference")
	}
}

func TestConcurrentRecording(t *testing.T) {
	recorder := NewDryRunRecorder()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			recorder.RecordOperation(PlannedOperation{
				Type:       OpTypeArchive,
				ResourceID: string(rune(id)),
			})
		}(i)
	}

	wg.Wait()

	if recorder.Count() != 100 {
		t.Errorf("Expected Count()=100, got %d", recorder.Count())
	}
}

func TestRecordArchive(t *testing.T) {
	recorder := NewDryRunRecorder()

	RecordArchive(recorder, "msg123", "Invoice")

	ops := recorder.GetOperations()
	if len(ops) != 1 {
		t.Fatalf("Expected 1 operation, got %d", len(ops))
	}

	if ops[0].Type != OpTypeArchive {
		t.Errorf("Expected Type=%s, got %s", OpTypeArchive, ops[0].Type)
	}
}

func TestRecordApplyLabel(t *testing.T) {
	recorder := NewDryRunRecorder()

	RecordApplyLabel(recorder, "msg123", "Invoice", []string{"Receipts"}, []string{"INBOX"})

	ops := recorder.GetOperations()
	if len(ops) != 1 {
		t.Fatalf("Expected 1 operation, got %d", len(ops))
	}

	if ops[0].Type != OpTypeApplyLabel {
		t.Errorf("Expected Type=%s, got %s", OpTypeApplyLabel, ops[0].Type)
	}

	addLabels, ok := ops[0].Parameters["addLabels"].([]string)
	if !ok || len(addLabels) != 1 || addLabels[0] != "Receipts" {
		t.Errorf("Expected addLabels=[Receipts], got %v", ops[0].Parameters["addLabels"])
	}
}

func TestRecordSend(t *testing.T) {
	recorder := NewDryRunRecorder()

	RecordSend(recorder, []string{"a@example.com", "b@example.com"}, "Weekly update")

	ops := recorder.GetOperations()
	if len(ops) != 1 {
		t.Fatalf("Expected 1 operation, got %d", len(ops))
	}
	if ops[0].Type != OpTypeSend {
		t.Errorf("Expected Type=%s, got %s", OpTypeSend, ops[0].Type)
	}
}

func TestRecordReply(t *testing.T) {
	recorder := NewDryRunRecorder()

	RecordReply(recorder, "msg123", "Re: contract question")

	ops := recorder.GetOperations()
	if len(ops) != 1 {
		t.Fatalf("Expected 1 operation, got %d", len(ops))
	}
	if ops[0].Type != OpTypeReply {
		t.Errorf("Expected Type=%s, got %s", OpTypeReply, ops[0].Type)
	}
}

func TestNewDryRunResult(t *testing.T) {
	ops := []PlannedOperation{
		{Type: OpTypeArchive, ResourceID: "1"},
		{Type: OpTypeArchive, ResourceID: "2"},
		{Type: OpTypeSend, ResourceID: "3"},
		{Type: OpTypeApplyLabel, ResourceID: "4"},
	}

	warnings := []string{"Warning 1", "Warning 2"}

	result := NewDryRunResult(ops, warnings)

	if result.TotalCount != 4 {
		t.Errorf("Expected TotalCount=4, got %d", result.TotalCount)
	}

	if result.Summary[OpTypeArchive] != 2 {
		t.Errorf("Expected 2 archive operations, got %d", result.Summary[OpTypeArchive])
	}
	if result.Summary[OpTypeSend] != 1 {
		t.Errorf("Expected 1 send operation, got %d", result.Summary[OpTypeSend])
	}
	if result.Summary[OpTypeApplyLabel] != 1 {
		t.Errorf("Expected 1 apply_label operation, got %d", result.Summary[OpTypeApplyLabel])
	}

	if len(result.Warnings) != 2 {
		t.Errorf("Expected 2 warnings, got %d", len(result.Warnings))
	}
}
