package extract

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

const (
	// MergeTaskName identifies events about the aggregate data.csv.
	MergeTaskName = "write_data.csv"

	MessageEnd     = "end"
	MessageSaved   = "saved"
	MessageSummary = "Extracted files successfully"
)

type TaskKind uint8

const (
	TaskNone TaskKind = iota
	TaskChannel
	TaskMerge
)

// TaskID names the unit of work an event belongs to: a channel index, the
// merge step, or nothing for the run summary.
type TaskID struct {
	Kind    TaskKind
	Channel int
}

func ChannelTask(index int) TaskID {
	return TaskID{Kind: TaskChannel, Channel: index}
}

var (
	MergeTask = TaskID{Kind: TaskMerge}
	NoTask    = TaskID{}
)

func (t TaskID) String() string {
	switch t.Kind {
	case TaskChannel:
		return strconv.Itoa(t.Channel)
	case TaskMerge:
		return MergeTaskName
	default:
		return "none"
	}
}

// MarshalJSON encodes channel tasks as a number, the merge task as its
// name and no task as null.
func (t TaskID) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TaskChannel:
		return strconv.AppendInt(nil, int64(t.Channel), 10), nil
	case TaskMerge:
		return json.Marshal(MergeTaskName)
	default:
		return []byte("null"), nil
	}
}

func (t *TaskID) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = NoTask
	case float64:
		*t = ChannelTask(int(x))
	case string:
		if x != MergeTaskName {
			return fmt.Errorf("unknown task id %q", x)
		}
		*t = MergeTask
	default:
		return fmt.Errorf("unknown task id %s", b)
	}
	return nil
}

// Event is one progress notification from the pipeline.
type Event struct {
	TaskID  TaskID `json:"task_id"`
	Message string `json:"message"`

	// Path is the output file the event refers to, if any.
	Path string `json:"-"`
	Err  error  `json:"-"`
}

// Terminal reports whether e is a channel's end marker.
func (e Event) Terminal() bool {
	return e.TaskID.Kind == TaskChannel && e.Message == MessageEnd
}

func fileEvent(task TaskID, path string, err error) Event {
	msg := path + " - " + MessageSaved
	if err != nil {
		msg = path + " - " + err.Error()
	}
	return Event{TaskID: task, Message: msg, Path: path, Err: err}
}

func endEvent(task TaskID) Event {
	return Event{TaskID: task, Message: MessageEnd}
}
