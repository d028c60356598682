// Package worker прогревает кэш предпросмотров в фоне.
//
// # Обзор
//
// Worker — stateless компонент системы Flowsheet. Он потребляет
// задания preview.precompute из очереди previews.pending, загружает
// flow из БД и выполняет его один раз, складывая предпросмотр
// каждого объявленного выхода в кэш.
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют из одной очереди. Кэш у каждого процесса свой, поэтому
// прогрев имеет смысл, когда worker и api живут в одном процессе
// или кэш у них общий.
//
// Flow, удалённый до обработки задания, — не ошибка: задание
// подтверждается и пропускается.
package worker
