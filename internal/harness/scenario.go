package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against a fresh store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one route-layer call.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// List is the title of the target list.
	List string `yaml:"list,omitempty"`

	// Todo is the title of the target todo within List.
	Todo string `yaml:"todo,omitempty"`

	// Title is the new title for create_list, update_list, create_todo.
	Title string `yaml:"title,omitempty"`

	// Completed is the status for set_todo.
	Completed *bool `yaml:"completed,omitempty"`

	// Reject expects validation to fail with this reason.
	Reject string `yaml:"reject,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	Type string `yaml:"type"`

	// List is the list title (remaining, list_completed, todo_order,
	// list_exists, list_missing).
	List string `yaml:"list,omitempty"`

	// Count is used by list_count and remaining.
	Count *int `yaml:"count,omitempty"`

	// Completed is used by list_completed.
	Completed *bool `yaml:"completed,omitempty"`

	// Titles is the expected order for todo_order and list_order.
	Titles []string `yaml:"titles,omitempty"`
}

// Step operations.
const (
	OpCreateList  = "create_list"
	OpUpdateList  = "update_list"
	OpDeleteList  = "delete_list"
	OpCreateTodo  = "create_todo"
	OpDeleteTodo  = "delete_todo"
	OpSetTodo     = "set_todo"
	OpCompleteAll = "complete_all"
)

// Rejection reasons.
const (
	RejectDuplicate = "duplicate"
	RejectLength    = "length"
)

// Assertion type constants.
const (
	AssertListCount     = "list_count"
	AssertListExists    = "list_exists"
	AssertListMissing   = "list_missing"
	AssertRemaining     = "remaining"
	AssertListCompleted = "list_completed"
	AssertTodoOrder     = "todo_order"
	AssertListOrder     = "list_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(i int, step Step) error {
	switch step.Op {
	case OpCreateList:
	case OpUpdateList, OpCreateTodo, OpDeleteList, OpCompleteAll:
		if step.List == "" {
			return fmt.Errorf("steps[%d]: list is required for %s", i, step.Op)
		}
	case OpDeleteTodo:
		if step.List == "" || step.Todo == "" {
			return fmt.Errorf("steps[%d]: list and todo are required for %s", i, step.Op)
		}
	case OpSetTodo:
		if step.List == "" || step.Todo == "" {
			return fmt.Errorf("steps[%d]: list and todo are required for %s", i, step.Op)
		}
		if step.Completed == nil {
			return fmt.Errorf("steps[%d]: completed is required for %s", i, step.Op)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
	}

	switch step.Reject {
	case "", RejectDuplicate, RejectLength:
	default:
		return fmt.Errorf("steps[%d]: unknown reject reason %q", i, step.Reject)
	}
	if step.Reject != "" && !validates(step.Op) {
		return fmt.Errorf("steps[%d]: %s does not validate, reject is not allowed", i, step.Op)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case AssertListCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", i, a.Type)
		}
	case AssertListExists, AssertListMissing:
		if a.List == "" {
			return fmt.Errorf("assertions[%d]: list is required for %s", i, a.Type)
		}
	case AssertRemaining:
		if a.List == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: list and count are required for %s", i, a.Type)
		}
	case AssertListCompleted:
		if a.List == "" || a.Completed == nil {
			return fmt.Errorf("assertions[%d]: list and completed are required for %s", i, a.Type)
		}
	case AssertTodoOrder:
		if a.List == "" {
			return fmt.Errorf("assertions[%d]: list is required for %s", i, a.Type)
		}
	case AssertListOrder:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

func validates(op string) bool {
	return op == OpCreateList || op == OpUpdateList || op == OpCreateTodo
}
