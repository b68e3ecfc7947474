package compaction

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"compactd/pkg/dberrors"
)

func op(partition, fileID string) Operation {
	return Operation{PartitionPath: partition, FileID: fileID}
}

func fileIDs(ops []Operation) []string {
	ids := make([]string, 0, len(ops))
	for _, o := range ops {
		ids = append(ids, o.FileID)
	}
	return ids
}

func TestDayBased_AdmitsNewestPartitionsWithinBudget(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{
		op("2023/01/01", "a1"),
		op("2023/01/01", "a2"),
		op("2023/02/01", "b1"),
		op("2023/03/01", "c1"),
	}

	sel, err := s.Select(Config{TargetPartitionsPerRun: 2}, ops, nil)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if diff := cmp.Diff([]string{"c1", "b1"}, fileIDs(sel.Operations)); diff != "" {
		t.Fatalf("unexpected operations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2023/03/01", "2023/02/01"}, sel.Admitted); diff != "" {
		t.Fatalf("unexpected admitted partitions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2023/01/01"}, sel.Rejected); diff != "" {
		t.Fatalf("unexpected rejected partitions (-want +got):\n%s", diff)
	}
}

func TestDayBased_KeepsGroupsWholeAndInInputOrder(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{
		op("2023/02/15", "x1"),
		op("2023/03/01", "y1"),
		op("2023/01/10", "z1"),
		op("2023/02/15", "x2"),
		op("2023/03/01", "y2"),
		op("2023/02/15", "x3"),
	}

	got, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 10}, ops, nil)
	if err != nil {
		t.Fatalf("OrderAndFilter failed: %v", err)
	}

	want := []string{"y1", "y2", "x1", "x2", "x3", "z1"}
	if diff := cmp.Diff(want, fileIDs(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestDayBased_DistinctPartitionCount(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{
		op("2024/05/01", "1"),
		op("2024/05/02", "2"),
		op("2024/05/03", "3"),
		op("2024/05/03", "4"),
	}

	for k := 1; k <= 5; k++ {
		got, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: k}, ops, nil)
		if err != nil {
			t.Fatalf("k=%d: OrderAndFilter failed: %v", k, err)
		}
		partitions := make(map[string]struct{})
		for _, o := range got {
			partitions[o.PartitionPath] = struct{}{}
		}
		if want := min(k, 3); len(partitions) != want {
			t.Fatalf("k=%d: expected %d partitions, got %d", k, want, len(partitions))
		}
	}
}

func TestDayBased_NonPositiveBudget(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{op("2023/01/01", "a"), op("2023/01/02", "b")}

	for _, budget := range []int{0, -1} {
		sel, err := s.Select(Config{TargetPartitionsPerRun: budget}, ops, nil)
		if err != nil {
			t.Fatalf("budget=%d: Select failed: %v", budget, err)
		}
		if len(sel.Operations) != 0 {
			t.Fatalf("budget=%d: expected no operations, got %d", budget, len(sel.Operations))
		}
		if diff := cmp.Diff([]string{"2023/01/02", "2023/01/01"}, sel.Rejected); diff != "" {
			t.Fatalf("budget=%d: unexpected rejected (-want +got):\n%s", budget, diff)
		}
	}
}

func TestDayBased_EmptyInput(t *testing.T) {
	s := NewDayBasedStrategy()

	got, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 3}, nil, nil)
	if err != nil {
		t.Fatalf("OrderAndFilter failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty output, got %d operations", len(got))
	}
}

func TestDayBased_MalformedPartitionFails(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{op("2023/01/01", "a"), op("not-a-date", "b")}

	got, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 5}, ops, nil)
	if err == nil {
		t.Fatal("expected error for malformed partition")
	}
	if got != nil {
		t.Fatalf("expected no result on error, got %v", got)
	}

	var pfe *PartitionFormatError
	if !errors.As(err, &pfe) {
		t.Fatalf("expected *PartitionFormatError, got %T: %v", err, err)
	}
	if pfe.Partition != "not-a-date" {
		t.Fatalf("expected partition 'not-a-date', got %q", pfe.Partition)
	}
	if !errors.Is(err, dberrors.ErrInvalidPartition) {
		t.Fatalf("expected error to match ErrInvalidPartition: %v", err)
	}
	var parseErr *time.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected wrapped *time.ParseError: %v", err)
	}
}

func TestDayBased_MalformedPartitionFailsWithZeroBudget(t *testing.T) {
	s := NewDayBasedStrategy()

	_, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 0}, []Operation{op("2023/1/1", "a")}, nil)
	if !IsPartitionFormatError(err) {
		t.Fatalf("expected partition format error, got %v", err)
	}
}

func TestDayBased_RejectsTrailingText(t *testing.T) {
	s := NewDayBasedStrategy()

	_, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 1}, []Operation{op("2023/01/01/extra", "a")}, nil)
	if !IsPartitionFormatError(err) {
		t.Fatalf("expected partition format error, got %v", err)
	}
}

func TestDayBased_TiesKeepInputOrder(t *testing.T) {
	// with a non-padded layout two spellings of the same day tie
	s := NewDayBasedStrategy(WithPartitionLayout("2006/1/2"))
	ops := []Operation{
		op("2023/2/15", "short"),
		op("2023/03/01", "newest"),
		op("2023/02/15", "padded"),
		op("2023/01/10", "oldest"),
	}

	got, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 4}, ops, nil)
	if err != nil {
		t.Fatalf("OrderAndFilter failed: %v", err)
	}
	if diff := cmp.Diff([]string{"newest", "short", "padded", "oldest"}, fileIDs(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestDayBased_Idempotent(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{
		op("2023/01/05", "a"),
		op("2023/01/07", "b"),
		op("2023/01/06", "c"),
		op("2023/01/07", "d"),
		op("2023/01/04", "e"),
	}
	cfg := Config{TargetPartitionsPerRun: 3}

	first, err := s.OrderAndFilter(cfg, ops, nil)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := s.OrderAndFilter(cfg, ops, nil)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated selection differs (-first +second):\n%s", diff)
	}
}

func TestDayBased_DoesNotModifyInput(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{
		op("2023/01/01", "a"),
		op("2023/03/01", "b"),
		op("2023/02/01", "c"),
	}
	before := append([]Operation(nil), ops...)

	if _, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 2}, ops, nil); err != nil {
		t.Fatalf("OrderAndFilter failed: %v", err)
	}
	if diff := cmp.Diff(before, ops); diff != "" {
		t.Fatalf("input was modified (-before +after):\n%s", diff)
	}
}

func TestDayBased_IgnoresPendingPlans(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{op("2023/01/01", "a"), op("2023/01/02", "b")}
	pending := []Plan{{InstantTime: "001", Operations: []Operation{op("2023/01/02", "b")}}}

	got, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 2}, ops, pending)
	if err != nil {
		t.Fatalf("OrderAndFilter failed: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, fileIDs(got)); diff != "" {
		t.Fatalf("unexpected operations (-want +got):\n%s", diff)
	}
}

func TestDayBased_Compare(t *testing.T) {
	s := NewDayBasedStrategy()

	tests := []struct {
		left, right string
		want        int
	}{
		{"2023/03/01", "2023/02/15", -1},
		{"2023/02/15", "2023/03/01", 1},
		{"2023/02/15", "2023/02/15", 0},
	}
	for _, tt := range tests {
		got, err := s.Compare(tt.left, tt.right)
		if err != nil {
			t.Fatalf("Compare(%q, %q) failed: %v", tt.left, tt.right, err)
		}
		if got != tt.want {
			t.Fatalf("Compare(%q, %q) = %d, want %d", tt.left, tt.right, got, tt.want)
		}
	}

	if _, err := s.Compare("2023/02/15", "garbage"); !IsPartitionFormatError(err) {
		t.Fatalf("expected partition format error, got %v", err)
	}
}

func TestDayBased_ConcurrentUse(t *testing.T) {
	s := NewDayBasedStrategy()
	ops := []Operation{
		op("2023/01/01", "a"),
		op("2023/01/03", "b"),
		op("2023/01/02", "c"),
	}
	want, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 2}, ops, nil)
	if err != nil {
		t.Fatalf("OrderAndFilter failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.OrderAndFilter(Config{TargetPartitionsPerRun: 2}, ops, nil)
			if err != nil {
				errs <- err
				return
			}
			if !cmp.Equal(want, got) {
				errs <- errors.New("concurrent selection differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
