// Package storage раскладывает загруженные файлы по локальному диску.
//
// Каждому пользователю — свой каталог, каждому файлу — имя на базе
// UUID с сохранённым расширением. Оригинальное имя файла живёт
// только в базе, на диске его нет.
package storage
