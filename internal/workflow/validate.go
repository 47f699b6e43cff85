package workflow

import (
	"fmt"
	"maps"
	"slices"

	"github.com/shaiso/Conductor/internal/domain"
)

// Validate проверяет tasks workflow.
//
// Проверяет:
// - Наличие tasks
// - Непустые и уникальные taskReferenceName (включая вложенные)
// - Известность типов
// - Ветки у FORK_JOIN, DO_WHILE, DECISION/SWITCH
// - Ссылки JOIN на существующие tasks
func Validate(tasks []domain.WorkflowTask) error {
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	refs := make(map[string]bool)
	var joins []*domain.WorkflowTask

	var walk func(list []domain.WorkflowTask) error
	walk = func(list []domain.WorkflowTask) error {
		for i := range list {
			t := &list[i]
			if err := validateTask(t, refs); err != nil {
				return err
			}
			if t.Type == TaskJoin {
				joins = append(joins, t)
			}

			for _, branch := range children(t) {
				if err := walk(branch); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(tasks); err != nil {
		return err
	}

	for _, j := range joins {
		for _, ref := range j.JoinOn {
			if !refs[ref] {
				return newValidationError(j.TaskReferenceName, "joinOn",
					fmt.Sprintf("join references unknown task: %s", ref), ErrUnknownJoinRef)
			}
		}
	}

	return nil
}

func validateTask(t *domain.WorkflowTask, refs map[string]bool) error {
	ref := t.TaskReferenceName
	if ref == "" {
		return newValidationError(t.Name, "taskReferenceName", "task has empty reference name", ErrEmptyTaskRef)
	}
	if refs[ref] {
		return newValidationError(ref, "taskReferenceName",
			fmt.Sprintf("duplicate task reference name: %s", ref), ErrDuplicateTaskRef)
	}
	refs[ref] = true

	if t.Type == "" {
		return newValidationError(ref, "type", "task has empty type", ErrUnknownTaskType)
	}
	if !validTaskTypes[t.Type] {
		return newValidationError(ref, "type", fmt.Sprintf("unknown task type: %s", t.Type), ErrUnknownTaskType)
	}
	if t.Name == "" {
		return newValidationError(ref, "name", "task has empty name", ErrInvalidName)
	}

	switch t.Type {
	case TaskForkJoin:
		if len(t.ForkTasks) == 0 {
			return newValidationError(ref, "forkTasks", "fork has no branches", ErrEmptyBranches)
		}
		for i, branch := range t.ForkTasks {
			if len(branch) == 0 {
				return newValidationError(ref, "forkTasks", fmt.Sprintf("fork branch %d is empty", i), ErrEmptyBranches)
			}
		}
	case TaskDoWhile:
		if len(t.LoopOver) == 0 {
			return newValidationError(ref, "loopOver", "loop has no tasks", ErrEmptyBranches)
		}
	case TaskDecision, TaskSwitch:
		if len(t.DecisionCases) == 0 && len(t.DefaultCase) == 0 {
			return newValidationError(ref, "decisionCases", "decision has no cases", ErrEmptyBranches)
		}
	}

	return nil
}

// children возвращает вложенные списки tasks в детерминированном порядке.
func children(t *domain.WorkflowTask) [][]domain.WorkflowTask {
	var out [][]domain.WorkflowTask
	for _, k := range slices.Sorted(maps.Keys(t.DecisionCases)) {
		out = append(out, t.DecisionCases[k])
	}
	if len(t.DefaultCase) > 0 {
		out = append(out, t.DefaultCase)
	}
	if len(t.LoopOver) > 0 {
		out = append(out, t.LoopOver)
	}
	out = append(out, t.ForkTasks...)
	return out
}
