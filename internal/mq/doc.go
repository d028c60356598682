// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - preview.precompute — flow сохранён, кэш предпросмотров пора прогреть
//
// Exchanges:
//   - flowsheet.previews — задания на прогрев
//   - flowsheet.dlq      — dead letter queue
package mq
