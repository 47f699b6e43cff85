package domain

// WorkflowDef — определение workflow в формате metadata/workflow.
//
// Собирается пакетом workflow из декларативного описания.
type WorkflowDef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     int    `json:"version"`

	Tasks            []WorkflowTask `json:"tasks"`
	InputParameters  []string       `json:"inputParameters"`
	OutputParameters map[string]any `json:"outputParameters"`
	InputTemplate    map[string]any `json:"inputTemplate"`

	Restartable    bool          `json:"restartable"`
	TimeoutPolicy  TimeoutPolicy `json:"timeoutPolicy"`
	TimeoutSeconds int           `json:"timeoutSeconds"`

	FailureWorkflow               string         `json:"failureWorkflow,omitempty"`
	SchemaVersion                 int            `json:"schemaVersion,omitempty"`
	WorkflowStatusListenerEnabled *bool          `json:"workflowStatusListenerEnabled,omitempty"`
	OwnerEmail                    string         `json:"ownerEmail,omitempty"`
	OwnerApp                      string         `json:"ownerApp,omitempty"`
	Variables                     map[string]any `json:"variables,omitempty"`
}

// WorkflowTask — ссылка на task внутри workflow definition.
//
// Один тип покрывает все виды task (SIMPLE, DECISION, DO_WHILE, ...):
// неиспользуемые поля опускаются при сериализации.
type WorkflowTask struct {
	Name              string         `json:"name"`
	TaskReferenceName string         `json:"taskReferenceName"`
	Type              string         `json:"type"`
	Description       string         `json:"description,omitempty"`
	StartDelay        int            `json:"startDelay"`
	Optional          bool           `json:"optional"`
	AsyncComplete     bool           `json:"asyncComplete"`
	InputParameters   map[string]any `json:"inputParameters"`
	DefaultCase       []WorkflowTask `json:"defaultCase"`

	// DECISION / SWITCH
	CaseExpression string                    `json:"caseExpression,omitempty"`
	CaseValueParam string                    `json:"caseValueParam,omitempty"`
	DecisionCases  map[string][]WorkflowTask `json:"decisionCases,omitempty"`
	EvaluatorType  string                    `json:"evaluatorType,omitempty"`
	Expression     string                    `json:"expression,omitempty"`

	// DO_WHILE
	LoopCondition string         `json:"loopCondition,omitempty"`
	LoopOver      []WorkflowTask `json:"loopOver,omitempty"`

	// FORK_JOIN / JOIN
	ForkTasks [][]WorkflowTask `json:"forkTasks,omitempty"`
	JoinOn    []string         `json:"joinOn,omitempty"`

	// SUB_WORKFLOW
	SubWorkflowParam *SubWorkflowParam `json:"subWorkflowParam,omitempty"`

	// LAMBDA
	ScriptExpression string `json:"scriptExpression,omitempty"`
}

// SubWorkflowParam — параметры вызова под-workflow.
type SubWorkflowParam struct {
	Name    string `json:"name"`
	Version int    `json:"version,omitempty"`
}

// Workflow — экземпляр workflow, как его возвращает сервер.
type Workflow struct {
	WorkflowID            string         `json:"workflowId"`
	WorkflowName          string         `json:"workflowName,omitempty"`
	Version               int            `json:"workflowVersion,omitempty"`
	Status                WorkflowStatus `json:"status"`
	CorrelationID         string         `json:"correlationId,omitempty"`
	Input                 map[string]any `json:"input,omitempty"`
	Output                map[string]any `json:"output,omitempty"`
	ReasonForIncompletion string         `json:"reasonForIncompletion,omitempty"`
	StartTime             int64          `json:"startTime,omitempty"`
	EndTime               int64          `json:"endTime,omitempty"`
	Tasks                 []Task         `json:"tasks,omitempty"`
}

// EventHandler — обработчик событий сервера (event handler definition).
type EventHandler struct {
	Name      string           `json:"name"`
	Event     string           `json:"event"`
	Condition string           `json:"condition,omitempty"`
	Actions   []map[string]any `json:"actions"`
	Active    bool             `json:"active"`
}
