// Package harness runs conformance scenarios against storage backends.
//
// A scenario is a script of route-layer calls: each step validates its title
// the way the route layer does, then calls the storage contract. Running the
// same scenario against every backend must produce the same Snapshot.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - op: create_list
//	    title: Work
//	  - op: create_todo
//	    list: Work
//	    title: Email
//	  - op: set_todo
//	    list: Work
//	    todo: Email
//	    completed: true
//	  - op: create_list
//	    title: work
//	    reject: duplicate
//	assertions:
//	  - type: todo_order
//	    list: Work
//	    titles: [Call, Email]
//
// Lists and todos are referenced by title. A reference that resolves to
// nothing is passed to the store as an unknown id, which exercises the
// no-op contract.
//
// # Step Operations
//
//   - create_list, update_list: validate with todo.ValidateListTitle
//   - create_todo: validate with todo.ValidateTodoTitle
//   - delete_list, delete_todo, set_todo, complete_all: no validation
//
// A step with reject set expects validation to fail with that reason
// (duplicate or length); the store is not called.
//
// # Assertion Types
//
//   - list_count: number of lists
//   - list_exists / list_missing: a list with the title is (not) present
//   - remaining: todo.RemainingCount of a list
//   - list_completed: todo.IsListCompleted of a list
//   - todo_order: titles of a list's todos after todo.SortTodos
//   - list_order: titles of all lists after todo.SortLists
//
// # Golden Snapshots
//
// Snapshots are compared with files in testdata/golden via goldie.
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
