// Package table содержит Table — прямоугольный набор данных в памяти.
//
// Table — единица данных, с которой работают движок (internal/engine)
// и преобразования (internal/transforms): именованные колонки,
// упорядоченные строки, скалярные значения в ячейках.
//
// Таблицы живут только в рамках одного вызова Execute и никогда
// не сохраняются.
package table
