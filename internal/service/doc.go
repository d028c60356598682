// Package service связывает движок, кэш и хранилища в операции
// уровня запроса: предпросмотр, прогрев, экспорт.
//
// Слой не знает про HTTP: api и worker зовут одни и те же методы.
package service
