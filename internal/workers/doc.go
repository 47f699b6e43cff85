// Package workers содержит встроенные воркеры и workflow.
//
// Воркеры:
//   - http_get_generic — HTTP-запрос из input поля http_request
//   - Wait_in_seconds — ожидание с поддержкой отмены
//
// Workflow:
//   - Http_request — один HTTP-запрос, параметры из workflow input
//   - Post_to_Slack — сообщение в Slack через incoming webhook
//
// All и Workflows отдают всё сразу для регистрации в cmd/conductor-worker.
package workers
