package pipeline

import "fmt"

// State is one step of a run.
type State string

const (
	StateIntentPending   State = "INTENT_PENDING"
	StateIntentDone      State = "INTENT_DONE"
	StateTextPending     State = "TEXT_PENDING"
	StateImagePending    State = "IMAGE_PENDING"
	StateMusicPending    State = "MUSIC_PENDING"
	StateAllBranchesDone State = "ALL_BRANCHES_DONE"
	StateVideoPending    State = "VIDEO_PENDING"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// Workflow names an entry point.
type Workflow string

const (
	WorkflowRunPipeline Workflow = "run_pipeline"
	WorkflowTextOnly    Workflow = "generate_text_only"
	WorkflowTextStream  Workflow = "generate_text_stream"
	WorkflowImageOnly   Workflow = "generate_image_only"
	WorkflowVideoOnly   Workflow = "generate_video_only"
)

// The full run enters the three branch states in order before fanning out,
// so TEXT -> IMAGE -> MUSIC are edges too. The step workflows reuse the
// same edges: text only stops after TEXT_PENDING, image only starts from a
// synthesized intent, and video only settles its image (IMAGE_PENDING, or
// nothing when the supplied image resolves) before TEXT_PENDING.
var transitions = map[State][]State{
	StateIntentPending:   {StateIntentDone},
	StateIntentDone:      {StateTextPending, StateImagePending},
	StateTextPending:     {StateImagePending, StateMusicPending, StateDone},
	StateImagePending:    {StateTextPending, StateMusicPending, StateDone},
	StateMusicPending:    {StateAllBranchesDone},
	StateAllBranchesDone: {StateVideoPending},
	StateVideoPending:    {StateDone},
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether from -> to is a legal edge. FAILED is
// reachable from every non-terminal state.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func illegalTransition(from, to State) error {
	return fmt.Errorf("illegal state transition %s -> %s", from, to)
}
