package producer

import "testing"

func TestComputePartitionEvenSplit(t *testing.T) {
	p := computePartition(90, 30, 1)
	if p.groups != 3 {
		t.Fatalf("expected 3 groups, got %d", p.groups)
	}
	if p.quotient != 30 || p.remainder != 0 {
		t.Fatalf("expected quotient=30 remainder=0, got quotient=%d remainder=%d", p.quotient, p.remainder)
	}
	for i := 0; i < p.groups; i++ {
		if got := p.socketsForGroup(i); got != 30 {
			t.Errorf("group %d: expected 30 sockets, got %d", i, got)
		}
	}
}

func TestComputePartitionUnevenSplitDistributesRemainder(t *testing.T) {
	p := computePartition(10, 4, 1)
	// ceil(10/4) = 3 groups; 10 = 3*3 + 1, so one group gets 4, the rest get 3.
	if p.groups != 3 {
		t.Fatalf("expected 3 groups, got %d", p.groups)
	}
	total := 0
	extra := 0
	for i := 0; i < p.groups; i++ {
		n := p.socketsForGroup(i)
		total += n
		if n == p.quotient+1 {
			extra++
		}
	}
	if total != 10 {
		t.Fatalf("group sizes should sum to 10, got %d", total)
	}
	if extra != p.remainder {
		t.Fatalf("expected %d groups with an extra session, got %d", p.remainder, extra)
	}
}

func TestComputePartitionRespectsMinimumThreads(t *testing.T) {
	p := computePartition(5, 100, 4)
	if p.groups != 4 {
		t.Fatalf("expected minimum of 4 groups, got %d", p.groups)
	}
}

func TestComputePartitionZeroSessions(t *testing.T) {
	p := computePartition(0, 30, 1)
	if p.groups != 1 {
		t.Fatalf("expected 1 group for zero sessions, got %d", p.groups)
	}
	if p.socketsForGroup(0) != 0 {
		t.Errorf("expected 0 sockets in the only group, got %d", p.socketsForGroup(0))
	}
}

func TestOffsetForGroupAccumulatesPriorGroupSizes(t *testing.T) {
	p := computePartition(10, 4, 1)
	offset := 0
	for i := 0; i < p.groups; i++ {
		if p.offsetForGroup(i) != offset {
			t.Fatalf("group %d: expected offset %d, got %d", i, offset, p.offsetForGroup(i))
		}
		offset += p.socketsForGroup(i)
	}
	if offset != 10 {
		t.Fatalf("expected offsets to cover all 10 sessions, got %d", offset)
	}
}
