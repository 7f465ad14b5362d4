package indexer

import "encoding/json"

// State names as reported to clients.
const (
	StateIdle            = "idle"
	StateFetchingData    = "fetching_data"
	StateLoading         = "loading"
	StateCancelRequested = "cancel_requested"
	StateComplete        = "complete"
)

// TrainingState is the state of an orchestrator: one of Idle, FetchingData,
// Loading, CancelRequested or Complete. Each encodes as {"state": name, ...}.
type TrainingState interface {
	Name() string
	trainingState()
}

// Idle means no run is active.
type Idle struct{}

// FetchingData means a source's item list is being resolved.
type FetchingData struct{}

// Loading reports the item a run last started. Progress is 1-based and, with
// concurrent items, not guaranteed to increase monotonically.
type Loading struct {
	Progress int
	Total    int
	Filename string
}

// CancelRequested means a run is draining after Cancel.
type CancelRequested struct{}

// Complete is the end state of a finished run with its recoverable errors.
type Complete struct {
	Errors []ItemError
}

func (Idle) Name() string            { return StateIdle }
func (FetchingData) Name() string    { return StateFetchingData }
func (Loading) Name() string         { return StateLoading }
func (CancelRequested) Name() string { return StateCancelRequested }
func (Complete) Name() string        { return StateComplete }

func (Idle) trainingState()            {}
func (FetchingData) trainingState()    {}
func (Loading) trainingState()         {}
func (CancelRequested) trainingState() {}
func (Complete) trainingState()        {}

type stateOnly struct {
	State string `json:"state"`
}

func (s Idle) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateOnly{State: s.Name()})
}

func (s FetchingData) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateOnly{State: s.Name()})
}

func (s CancelRequested) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateOnly{State: s.Name()})
}

func (s Loading) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		State    string `json:"state"`
		Progress int    `json:"progress"`
		Total    int    `json:"total"`
		Filename string `json:"filename"`
	}{s.Name(), s.Progress, s.Total, s.Filename})
}

func (s Complete) MarshalJSON() ([]byte, error) {
	errs := s.Errors
	if errs == nil {
		errs = []ItemError{}
	}
	return json.Marshal(struct {
		State  string      `json:"state"`
		Errors []ItemError `json:"errors"`
	}{s.Name(), errs})
}
