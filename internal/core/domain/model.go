package domain

type Message struct {
	ID       int
	ChatID   int64
	Username string
	ImageURL string
	Text     string
}

type Action string

const (
	Typing       Action = "typing"
	SendingPhoto Action = "sending_photo"
)

type WorkerState int

const (
	WorkerNotStarted WorkerState = iota
	WorkerStarting
	WorkerReady
	WorkerExited
)

func (s WorkerState) String() string {
	switch s {
	case WorkerNotStarted:
		return "not_started"
	case WorkerStarting:
		return "starting"
	case WorkerReady:
		return "ready"
	case WorkerExited:
		return "exited"
	default:
		return "unknown"
	}
}

type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mode   string `json:"mode"`
	Format string `json:"format"`
}
