// Package transforms содержит реестр и реализации табличных преобразований.
//
// Каждое преобразование (filter_rows, sort_rows, join_lookup, ...)
// реализует интерфейс Transform: Validate проверяет конфигурацию
// против входной таблицы, Execute выполняет преобразование.
//
// Реестр регистрируется явно через DefaultRegistry() и передаётся
// в движок как зависимость — глобального состояния нет, тесты
// создают изолированные реестры.
package transforms
