// Package engine содержит движок выполнения flow.
//
// Включает:
//   - document.go — разбор flow-документа в типизированные записи
//   - refs.go     — извлечение и удаление ссылок на файлы
//   - executor.go — однопроходное выполнение узлов над картой таблиц
//   - outputs.go  — перечисление выходов flow
//
// Flow-документ на границе остаётся нетипизированным JSON-деревом
// (его схема меняется от типа узла к типу узла); движок разбирает
// его в маленький набор типизированных записей сразу на входе,
// пропуская некорректные узлы вместо ошибки.
//
// Одно и то же извлечение ссылок управляет и выполнением,
// и сборкой мусора (internal/refgc).
package engine
