// Package api реализует HTTP API сервиса Flowsheet.
//
// Структура:
//   - handler.go           — Handler с зависимостями
//   - routes.go            — маршруты
//   - middleware.go        — Chain, Logging, Recovery
//   - response.go          — JSON-ответы и коды ошибок
//   - dto.go               — типы запросов и ответов
//   - file_handler.go      — загрузка и удаление файлов, сироты
//   - flow_handler.go      — CRUD flows с каскадной уборкой
//   - batch_handler.go     — группы файлов
//   - transform_handler.go — предпросмотр, прогрев, экспорт
//
// Аутентификации нет: пользователя называет заголовок X-User-ID,
// проверка подлинности — забота внешнего шлюза.
package api
