// Package conductor — HTTP-клиент REST API сервера оркестрации.
//
// # Обзор
//
// Client покрывает четыре группы эндпоинтов:
//   - metadata: task definitions и workflow definitions
//   - tasks: poll, update, очереди
//   - workflow: запуск, статус, pause/resume/terminate/restart
//   - event: event handlers
//
// Все методы принимают context.Context. Ответы с кодом >= 400
// возвращаются как *APIError, который разворачивается в
// ErrNotFound / ErrConflict / ErrBadRequest / ErrServer:
//
//	def, err := client.GetTaskDef(ctx, "http_get_generic")
//	if errors.Is(err, conductor.ErrNotFound) {
//	    ...
//	}
//
// Заголовки из Config.Headers (x-tenant-id, from, x-auth-user-groups)
// добавляются к каждому запросу.
//
// Client реализует worker.TaskClient и worker.DefinitionRegistrar.
package conductor
