package ring

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/jittakal/sensorwindow/internal/errors"
)

func TestNew(t *testing.T) {
	buf, err := New[int](4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if buf.Cap() != 4 {
		t.Errorf("Cap() = %d, want 4", buf.Cap())
	}
	if buf.Len() != 0 {
		t.Errorf("Len() = %d, want 0", buf.Len())
	}
	if buf.IsFull() {
		t.Error("new buffer should not be full")
	}
	if got := buf.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() = %v, want empty", got)
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := New[int](capacity)
		if !errors.Is(err, apperrors.ErrInvalidCapacity) {
			t.Errorf("New(%d) error = %v, want ErrInvalidCapacity", capacity, err)
		}
	}
}

func TestBuffer_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		appends  []int
		want     []int
		wantFull bool
	}{
		{
			name:     "overwrites oldest once full",
			capacity: 3,
			appends:  []int{1, 2, 3, 4, 5},
			want:     []int{3, 4, 5},
			wantFull: true,
		},
		{
			name:     "partially filled",
			capacity: 5,
			appends:  []int{1, 2},
			want:     []int{1, 2},
			wantFull: false,
		},
		{
			name:     "exactly full",
			capacity: 3,
			appends:  []int{1, 2, 3},
			want:     []int{1, 2, 3},
			wantFull: true,
		},
		{
			name:     "wrapped twice",
			capacity: 2,
			appends:  []int{1, 2, 3, 4, 5, 6, 7},
			want:     []int{6, 7},
			wantFull: true,
		},
		{
			name:     "capacity one",
			capacity: 1,
			appends:  []int{9, 8},
			want:     []int{8},
			wantFull: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := New[int](tt.capacity)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			for _, v := range tt.appends {
				buf.Append(v)
			}

			if got := buf.Snapshot(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Snapshot() = %v, want %v", got, tt.want)
			}
			if buf.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", buf.Len(), len(tt.want))
			}
			if buf.IsFull() != tt.wantFull {
				t.Errorf("IsFull() = %v, want %v", buf.IsFull(), tt.wantFull)
			}
		})
	}
}

func TestBuffer_LenNeverExceedsCapacity(t *testing.T) {
	const capacity = 7
	buf, _ := New[int](capacity)

	for m := 1; m <= 3*capacity+2; m++ {
		buf.Append(m)

		want := min(m, capacity)
		if buf.Len() != want {
			t.Fatalf("after %d appends Len() = %d, want %d", m, buf.Len(), want)
		}
		if buf.IsFull() != (m >= capacity) {
			t.Fatalf("after %d appends IsFull() = %v", m, buf.IsFull())
		}

		// The window is always the last Len() values in order.
		snap := buf.Snapshot()
		for k, v := range snap {
			if wantV := m - len(snap) + 1 + k; v != wantV {
				t.Fatalf("after %d appends Snapshot()[%d] = %d, want %d", m, k, v, wantV)
			}
		}
	}
}

func TestBuffer_FullIsSticky(t *testing.T) {
	buf, _ := New[int](2)
	buf.Append(1)
	buf.Append(2)

	for i := 0; i < 10; i++ {
		buf.Append(i)
		if !buf.IsFull() {
			t.Fatalf("IsFull() became false after %d extra appends", i+1)
		}
	}
}

func TestBuffer_SnapshotIdempotent(t *testing.T) {
	buf, _ := New[int](3)
	for _, v := range []int{1, 2, 3, 4} {
		buf.Append(v)
	}

	first := buf.Snapshot()
	second := buf.Snapshot()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Snapshot() = %v then %v, want equal", first, second)
	}
}

func TestBuffer_SnapshotDoesNotAlias(t *testing.T) {
	buf, _ := New[int](3)
	buf.Append(1)
	buf.Append(2)

	snap := buf.Snapshot()
	snap[0] = 100
	buf.Append(3)
	buf.Append(4)

	if snap[1] != 2 {
		t.Errorf("snapshot changed after Append: %v", snap)
	}
	if got := buf.Snapshot(); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("Snapshot() = %v, want [2 3 4]", got)
	}
}

func TestBuffer_Struct(t *testing.T) {
	type sample struct {
		t   float64
		a   [3]float64
		mag float64
	}

	buf, _ := New[sample](2)
	buf.Append(sample{t: 1, a: [3]float64{1, 0, 0}, mag: 1})
	buf.Append(sample{t: 2, a: [3]float64{0, 2, 0}, mag: 2})
	buf.Append(sample{t: 3, a: [3]float64{0, 0, 3}, mag: 3})

	snap := buf.Snapshot()
	if len(snap) != 2 || snap[0].t != 2 || snap[1].mag != 3 {
		t.Errorf("Snapshot() = %+v", snap)
	}
}
