// Package workflow описывает workflow definitions в Go-коде.
//
// Workflow собирается из input полей и tasks, построенных конструкторами
// (Simple, HTTP, Decision, DoWhile, ForkJoin, ...). Build проверяет
// описание и возвращает domain.WorkflowDef для metadata/workflow.
//
// Пример:
//
//	uri := workflow.InputField{Name: "uri", Type: workflow.InputString}
//	wf := &workflow.Workflow{
//		Name:    "Http_request",
//		Version: 1,
//		Inputs:  []workflow.InputField{uri},
//		Tasks: []domain.WorkflowTask{
//			workflow.Simple("http_get_generic", "http_task", map[string]any{
//				"http_request": map[string]any{"uri": uri.Ref()},
//			}),
//		},
//	}
//	def, err := wf.Build()
package workflow
