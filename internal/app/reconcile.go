package app

import "strings"

// DragPoint locates one end of a drag gesture: the containing droppable and
// the position within it.
type DragPoint struct {
	ContainerID string `json:"containerId"`
	Index       int    `json:"index"`
}

// DragGesture is the raw drag-end event a board client reports. Destination
// is nil when the item was dropped outside any droppable.
type DragGesture struct {
	Type        string     `json:"type"`
	DraggableID string     `json:"draggableId"`
	Source      DragPoint  `json:"source"`
	Destination *DragPoint `json:"destination"`
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureProjectMove
	gestureTaskWithin
	gestureTaskAcross
)

// classifyGesture validates a drag gesture and decides which board mutation
// it maps to. Dropping outside a droppable, or back onto the exact source
// position, is a no-op rather than an error.
func classifyGesture(gesture DragGesture) (gestureKind, *DomainError) {
	if gesture.Destination == nil {
		return gestureNone, nil
	}
	if strings.TrimSpace(gesture.DraggableID) == "" {
		return gestureNone, validationError("draggableId is required")
	}
	if gesture.Destination.Index < 0 || gesture.Source.Index < 0 {
		return gestureNone, validationError("drag indexes must not be negative")
	}

	switch strings.ToUpper(strings.TrimSpace(gesture.Type)) {
	case "PROJECT":
		if gesture.Source.ContainerID != gesture.Destination.ContainerID {
			return gestureNone, validationError("projects can only be reordered within the board")
		}
		if gesture.Source.Index == gesture.Destination.Index {
			return gestureNone, nil
		}
		return gestureProjectMove, nil
	case "TASK":
		if gesture.Destination.ContainerID == "" {
			return gestureNone, validationError("destination container is required")
		}
		if gesture.Source.ContainerID == gesture.Destination.ContainerID {
			if gesture.Source.Index == gesture.Destination.Index {
				return gestureNone, nil
			}
			return gestureTaskWithin, nil
		}
		return gestureTaskAcross, nil
	default:
		return gestureNone, validationError("drag type must be PROJECT or TASK")
	}
}
