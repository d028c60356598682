// Package cli реализует инструмент командной строки Flowsheet.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Flowsheet API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления flows, файлами и наборами файлов.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Flowsheet API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Каждый запрос несёт заголовок X-User-ID —
// API разделяет данные по пользователям.
//
//	client := cli.NewClient("http://localhost:8080", 1)
//	flows, err := client.ListFlows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: flowsheet flow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - flow: list, create, show, update, delete, outputs, export
//   - file: list, upload, show, delete, orphans
//   - batch: list, create, show, delete
//   - transform: list
//
// Каждая группа создаётся через фабричную функцию (NewFlowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
