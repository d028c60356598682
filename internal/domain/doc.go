// Package domain содержит основные бизнес-сущности Flowsheet.
//
// Сущности:
//   - File      — загруженный файл (xlsx/csv) с метаданными
//   - Flow      — последовательность преобразований над таблицами
//   - FileBatch — именованная группа файлов
//
// Domain не зависит от других internal пакетов и не содержит
// бизнес-логики — только структуры данных.
package domain
