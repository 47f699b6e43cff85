package workflow

import (
	"maps"

	"github.com/shaiso/Conductor/internal/domain"
)

// Типы task, которые понимает сервер.
const (
	TaskSimple          = "SIMPLE"
	TaskHTTP            = "HTTP"
	TaskDecision        = "DECISION"
	TaskSwitch          = "SWITCH"
	TaskTerminate       = "TERMINATE"
	TaskWait            = "WAIT"
	TaskHuman           = "HUMAN"
	TaskDoWhile         = "DO_WHILE"
	TaskForkJoin        = "FORK_JOIN"
	TaskForkJoinDynamic = "FORK_JOIN_DYNAMIC"
	TaskJoin            = "JOIN"
	TaskSubWorkflow     = "SUB_WORKFLOW"
	TaskSetVariable     = "SET_VARIABLE"
	TaskLambda          = "LAMBDA"
	TaskInline          = "INLINE"
	TaskJSONJQ          = "JSON_JQ_TRANSFORM"
	TaskEvent           = "EVENT"
	TaskKafkaPublish    = "KAFKA_PUBLISH"
)

var validTaskTypes = map[string]bool{
	TaskSimple: true, TaskHTTP: true, TaskDecision: true, TaskSwitch: true,
	TaskTerminate: true, TaskWait: true, TaskHuman: true, TaskDoWhile: true,
	TaskForkJoin: true, TaskForkJoinDynamic: true, TaskJoin: true,
	TaskSubWorkflow: true, TaskSetVariable: true, TaskLambda: true,
	TaskInline: true, TaskJSONJQ: true, TaskEvent: true, TaskKafkaPublish: true,
}

// Вычислители для SWITCH и DO_WHILE.
const (
	EvaluatorValueParam = "value-param"
	EvaluatorJavaScript = "javascript"
)

// caseValueParam — имя input параметра, по которому DECISION выбирает ветку.
const caseValueParam = "case_value_param"

// Named — всё, у чего есть имя task definition (например, *worker.Worker).
type Named interface {
	Name() string
}

func newTask(taskType, name, ref string, inputs map[string]any) domain.WorkflowTask {
	params := map[string]any{}
	maps.Copy(params, inputs)

	return domain.WorkflowTask{
		Name:              name,
		TaskReferenceName: ref,
		Type:              taskType,
		InputParameters:   params,
		DefaultCase:       []domain.WorkflowTask{},
	}
}

// Simple — task, который выполняет воркер с данным именем.
func Simple(name, ref string, inputs map[string]any) domain.WorkflowTask {
	return newTask(TaskSimple, name, ref, inputs)
}

// SimpleFor — Simple по имени definition воркера.
func SimpleFor(w Named, ref string, inputs map[string]any) domain.WorkflowTask {
	return Simple(w.Name(), ref, inputs)
}

// HTTP — системный HTTP task; request кладётся в http_request.
func HTTP(ref string, request map[string]any) domain.WorkflowTask {
	return newTask(TaskHTTP, ref, ref, map[string]any{"http_request": request})
}

// Decision выбирает ветку по JavaScript выражению над inputs.
func Decision(ref, caseExpression string, inputs map[string]any, cases map[string][]domain.WorkflowTask, defaultCase ...domain.WorkflowTask) domain.WorkflowTask {
	t := newTask(TaskDecision, ref, ref, inputs)
	t.CaseExpression = caseExpression
	t.DecisionCases = cases
	if len(defaultCase) > 0 {
		t.DefaultCase = defaultCase
	}
	return t
}

// DecisionByValue выбирает ветку по значению value (обычно ссылка на input).
func DecisionByValue(ref, value string, cases map[string][]domain.WorkflowTask, defaultCase ...domain.WorkflowTask) domain.WorkflowTask {
	t := Decision(ref, "", map[string]any{caseValueParam: value}, cases, defaultCase...)
	t.CaseValueParam = caseValueParam
	return t
}

// Switch выбирает ветку по expression; evaluator — EvaluatorValueParam
// (expression — имя input параметра) или EvaluatorJavaScript.
func Switch(ref, evaluator, expression string, inputs map[string]any, cases map[string][]domain.WorkflowTask, defaultCase ...domain.WorkflowTask) domain.WorkflowTask {
	t := newTask(TaskSwitch, ref, ref, inputs)
	t.EvaluatorType = evaluator
	t.Expression = expression
	t.DecisionCases = cases
	if len(defaultCase) > 0 {
		t.DefaultCase = defaultCase
	}
	return t
}

// Terminate завершает workflow со статусом status.
func Terminate(ref string, status domain.WorkflowStatus, reason string, output map[string]any) domain.WorkflowTask {
	inputs := map[string]any{"terminationStatus": status}
	if reason != "" {
		inputs["terminationReason"] = reason
	}
	if output != nil {
		inputs["workflowOutput"] = output
	}
	return newTask(TaskTerminate, ref, ref, inputs)
}

// Wait ждёт duration ("10 seconds", "1h 30m"); пустая строка — ждать
// внешнего завершения task.
func Wait(ref, duration string) domain.WorkflowTask {
	inputs := map[string]any{}
	if duration != "" {
		inputs["duration"] = duration
	}
	return newTask(TaskWait, ref, ref, inputs)
}

// Human ждёт ручного завершения.
func Human(ref string, inputs map[string]any) domain.WorkflowTask {
	return newTask(TaskHuman, ref, ref, inputs)
}

// DoWhile повторяет loopOver, пока loopCondition (JavaScript) истинно.
func DoWhile(ref, loopCondition string, inputs map[string]any, loopOver ...domain.WorkflowTask) domain.WorkflowTask {
	t := newTask(TaskDoWhile, ref, ref, inputs)
	t.LoopCondition = loopCondition
	t.LoopOver = loopOver
	t.EvaluatorType = EvaluatorJavaScript
	return t
}

// ForkJoin запускает ветки параллельно. Следом в workflow должен идти Join.
func ForkJoin(ref string, branches ...[]domain.WorkflowTask) domain.WorkflowTask {
	t := newTask(TaskForkJoin, ref, ref, nil)
	t.ForkTasks = branches
	return t
}

// Join ждёт завершения перечисленных tasks.
func Join(ref string, joinOn ...string) domain.WorkflowTask {
	t := newTask(TaskJoin, ref, ref, nil)
	t.JoinOn = joinOn
	return t
}

// SubWorkflow запускает другой workflow; version 0 — последняя версия.
func SubWorkflow(ref, name string, version int, inputs map[string]any) domain.WorkflowTask {
	t := newTask(TaskSubWorkflow, ref, ref, inputs)
	t.SubWorkflowParam = &domain.SubWorkflowParam{Name: name, Version: version}
	return t
}

// SetVariable записывает переменные workflow.
func SetVariable(ref string, vars map[string]any) domain.WorkflowTask {
	return newTask(TaskSetVariable, ref, ref, vars)
}

// Lambda выполняет JavaScript script над inputs.
func Lambda(ref, script string, inputs map[string]any) domain.WorkflowTask {
	t := newTask(TaskLambda, ref, ref, inputs)
	t.ScriptExpression = script
	return t
}
