package model

type TrainerJobStatus string

const (
	TrainerJobPending    TrainerJobStatus = "pending"
	TrainerJobProcessing TrainerJobStatus = "processing"
	TrainerJobCompleted  TrainerJobStatus = "completed"
	TrainerJobFailed     TrainerJobStatus = "failed"
)
