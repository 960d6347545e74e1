package app

import "testing"

func TestClassifyGesture(t *testing.T) {
	dest := func(container string, index int) *DragPoint {
		return &DragPoint{ContainerID: container, Index: index}
	}

	tests := []struct {
		name     string
		gesture  DragGesture
		kind     gestureKind
		wantCode string
	}{
		{
			name:    "nil destination is a no-op",
			gesture: DragGesture{Type: "TASK", DraggableID: "t-1", Source: DragPoint{ContainerID: "p-a", Index: 0}},
			kind:    gestureNone,
		},
		{
			name:     "missing draggable id",
			gesture:  DragGesture{Type: "TASK", Source: DragPoint{ContainerID: "p-a", Index: 0}, Destination: dest("p-a", 1)},
			kind:     gestureNone,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "negative index",
			gesture:  DragGesture{Type: "TASK", DraggableID: "t-1", Source: DragPoint{ContainerID: "p-a", Index: 0}, Destination: dest("p-a", -1)},
			kind:     gestureNone,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:     "unknown type",
			gesture:  DragGesture{Type: "SWIMLANE", DraggableID: "x", Source: DragPoint{ContainerID: "b", Index: 0}, Destination: dest("b", 1)},
			kind:     gestureNone,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:    "project reorder",
			gesture: DragGesture{Type: "PROJECT", DraggableID: "p-a", Source: DragPoint{ContainerID: "board", Index: 0}, Destination: dest("board", 2)},
			kind:    gestureProjectMove,
		},
		{
			name:     "project cannot leave the board",
			gesture:  DragGesture{Type: "PROJECT", DraggableID: "p-a", Source: DragPoint{ContainerID: "board", Index: 0}, Destination: dest("other-board", 1)},
			kind:     gestureNone,
			wantCode: "VALIDATION_ERROR",
		},
		{
			name:    "project dropped back in place is a no-op",
			gesture: DragGesture{Type: "PROJECT", DraggableID: "p-a", Source: DragPoint{ContainerID: "board", Index: 1}, Destination: dest("board", 1)},
			kind:    gestureNone,
		},
		{
			name:    "task within a column",
			gesture: DragGesture{Type: "task", DraggableID: "t-1", Source: DragPoint{ContainerID: "p-a", Index: 0}, Destination: dest("p-a", 2)},
			kind:    gestureTaskWithin,
		},
		{
			name:    "task dropped back in place is a no-op",
			gesture: DragGesture{Type: "TASK", DraggableID: "t-1", Source: DragPoint{ContainerID: "p-a", Index: 1}, Destination: dest("p-a", 1)},
			kind:    gestureNone,
		},
		{
			name:    "task across columns",
			gesture: DragGesture{Type: "TASK", DraggableID: "t-1", Source: DragPoint{ContainerID: "p-a", Index: 0}, Destination: dest("p-b", 0)},
			kind:    gestureTaskAcross,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, derr := classifyGesture(tt.gesture)
			if tt.wantCode == "" {
				if derr != nil {
					t.Fatalf("unexpected error %v", derr)
				}
			} else {
				if derr == nil {
					t.Fatal("expected a validation error")
				}
				if derr.Code != tt.wantCode {
					t.Fatalf("expected code %s, got %s", tt.wantCode, derr.Code)
				}
			}
			if kind != tt.kind {
				t.Fatalf("expected kind %d, got %d", tt.kind, kind)
			}
		})
	}
}
