package ws

const (
	// server - client
	MsgReady = "ready"

	// task.created, task.updated and task.deleted come from domain.EventType
)
