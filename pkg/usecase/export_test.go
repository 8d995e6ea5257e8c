package usecase

import "time"

// MaxWriteAttempts is exported for testing
const MaxWriteAttempts = maxWriteAttempts

// SetNow replaces the clock of the project use case for testing
func (uc *ProjectUseCase) SetNow(now func() time.Time) {
	uc.now = now
}

// SetNow replaces the clock of the issue use case for testing
func (uc *IssueUseCase) SetNow(now func() time.Time) {
	uc.now = now
}

// SetNow replaces the clock of the task use case for testing
func (uc *TaskUseCase) SetNow(now func() time.Time) {
	uc.now = now
}
