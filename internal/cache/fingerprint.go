package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// FileStat — вклад одного входного файла в отпечаток.
// Размер участвует, чтобы перезаливка файла с тем же id
// инвалидировала кэш.
type FileStat struct {
	ID   int64 `json:"id"`
	Size int64 `json:"size"`
}

// Fingerprint строит стабильный ключ кэша для комбинации
// пользователя, входных файлов, документа и цели предпросмотра.
//
// Отпечаток не зависит от представления запроса, только от сути:
//   - encoding/json упорядочивает ключи всех карт, поэтому логически
//     равные документы совпадают независимо от порядка ключей
//     в исходном JSON;
//   - files сортируются по id — один и тот же набор файлов в другом
//     порядке даёт тот же отпечаток;
//   - target — ключ таблицы ("<fileID>:<sheet>" или "virtual:<id>",
//     пустая строка для "последней записанной"), а не структура цели:
//     флаги вроде пометки финального выхода на результат не влияют.
func Fingerprint(userID int64, files []FileStat, doc map[string]any, target string) (string, error) {
	sorted := append([]FileStat(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	payload := map[string]any{
		"user":   userID,
		"files":  sorted,
		"doc":    doc,
		"target": target,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint payload: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
