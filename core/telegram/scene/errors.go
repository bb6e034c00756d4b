package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateScene is returned when a name is registered twice.
	ErrDuplicateScene = errors.New("scene: already registered")
	// ErrNoActiveScene is returned by transitions requested outside a scene.
	ErrNoActiveScene = errors.New("scene: no active scene")
)

// SceneNotFoundError reports an unknown scene name.
type SceneNotFoundError struct {
	Name string
}

func (e *SceneNotFoundError) Error() string {
	return fmt.Sprintf("scene: %q not found", e.Name)
}

func (e *SceneNotFoundError) Code() string { return "SCENE_NOT_FOUND" }

// StepIndexOutOfRangeError reports a transition to a step the scene does not have.
type StepIndexOutOfRangeError struct {
	Scene string
	Index int
	Len   int
}

func (e *StepIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("scene: %q step %d out of range [0,%d)", e.Scene, e.Index, e.Len)
}

func (e *StepIndexOutOfRangeError) Code() string { return "STEP_OUT_OF_RANGE" }
