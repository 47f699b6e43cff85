// Package mq публикует события о результатах task в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect и graceful shutdown
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — конверт Message и публикация task.result
//   - consumer.go   — чтение событий (conductorctl events watch)
//
// Топология:
//
//	conductor.tasks (topic)
//	├── tasks.results  [result.#]
//	└── tasks.failures [result.failed.*, result.failed_with_terminal_error.*]
//	conductor.dlq (direct)
//	└── dlq.results    [results]
//
// Публикация необязательна: без RABBITMQ_URL воркер-хост работает
// только через REST API сервера.
package mq
