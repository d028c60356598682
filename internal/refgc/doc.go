// Package refgc вычищает файлы, на которые не ссылается ни один flow.
//
// Сборщик опирается на извлечение ссылок из flow-документов
// (internal/engine) и разделяет ошибки на ожидаемые и нет:
// уже удалённая запись или уже пропавшие байты на диске —
// нормальный исход каскада, любая другая ошибка его прерывает.
package refgc
