// Package cli реализует conductorctl, утилиту командной строки для сервера.
//
// # Client
//
// Команды работают через интерфейс API; в бинаре это *conductor.Client
// с заголовками из config (x-tenant-id, from, x-auth-user-groups).
// Флаг --url заменяет CONDUCTOR_URL_BASE.
//
// # Output
//
// Два режима вывода:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) в stderr:
//
//	conductorctl taskdef list --json | jq '.[].name'
//
// Definitions (show/render) всегда печатаются как JSON.
//
// # Commands
//
//   - taskdef: list, show, delete, render, register
//   - workflowdef: list, show, render, register
//   - workflow: start, show, running, pause, resume, terminate, restart
//   - queue: sizes
//   - events: watch (RabbitMQ, exchange conductor.tasks)
//
// Каждая группа создаётся фабрикой (NewTaskDefCmd и т.д.), принимающей Deps:
// замыкания для ленивого создания клиента, Output и Config после
// разбора PersistentFlags.
package cli
