// Package cache хранит результаты выполнения flow в памяти.
//
// Кэш ограничен по числу записей (LRU-вытеснение) и по возрасту
// записи (TTL). Просроченные записи убираются лениво — при чтении
// и при вставке, фонового обслуживания нет.
//
// Ключ записи строится в fingerprint.go: стабильный хэш от
// пользователя, входных файлов, документа и цели предпросмотра.
package cache
