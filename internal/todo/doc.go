// Package todo defines the List and Todo types and the pure rules every
// storage backend and the route layer share.
//
// This package imports nothing internal. Rules never touch storage:
//   - ValidateListTitle / ValidateTodoTitle check titles before creation
//   - RemainingCount, IsListCompleted, IsTodoCompleted compute status
//   - SortByCompletion orders items incomplete-first, alphabetical within
//     each bucket
//
// Titles are compared with Unicode case folding and measured in runes.
package todo
