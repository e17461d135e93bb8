package config

type WorkerKeyStruct struct {
	PersistAnswersQueue       string
	PersistSessionEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue:       "persist_answers_queue",
	PersistSessionEventsQueue: "persist_session_events_queue",
}
