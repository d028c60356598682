// Package loader читает табличные файлы с диска.
//
// Поддерживаются CSV (encoding/csv) и XLSX (excelize). Формат
// определяется по расширению файла. Ячейки приводятся к числам
// и логическим значениям там, где текст это допускает, — дальше
// по конвейеру типы различаются именно так.
package loader
