// Package tasks implements per-user task storage and the ranked, filtered
// task listing.
//
// Tasks are listed by priority (urgent first), then by due date with undated
// tasks last, then by id. Search is a case-sensitive substring match on the
// task text.
//
// Every mutation checks that the requester owns the task. A missing task
// returns ErrNotFound and a task owned by someone else returns ErrForbidden;
// both match ErrNotFoundOrForbidden so callers that do not care about the
// difference can treat them alike.
package tasks
