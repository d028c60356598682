package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultSheet — имя листа по умолчанию в ключе таблицы.
const DefaultSheet = "__default__"

// VirtualPrefix — префикс ключей виртуальных таблиц.
const VirtualPrefix = "virtual:"

// Типы узлов-маркеров: они описывают структуру flow,
// но сами не являются преобразованиями и пропускаются движком.
var markerBlockTypes = map[string]bool{
	"upload":  true,
	"source":  true,
	"output":  true,
	"mapping": true,
}

// TableKey — идентификатор таблицы в рамках одного выполнения.
//
// Файловый ключ: "<fileID>:<sheet>" (лист "__default__", если не задан).
// Виртуальный ключ: "virtual:<virtualID>" — порождается только
// выполнением и никогда не читается с диска.
type TableKey string

// FileKey строит файловый ключ таблицы.
func FileKey(fileID int64, sheet string) TableKey {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return TableKey(strconv.FormatInt(fileID, 10) + ":" + sheet)
}

// VirtualKey строит виртуальный ключ таблицы.
func VirtualKey(virtualID string) TableKey {
	return TableKey(VirtualPrefix + virtualID)
}

// IsVirtual сообщает, виртуальный ли это ключ.
func (k TableKey) IsVirtual() bool {
	return strings.HasPrefix(string(k), VirtualPrefix)
}

// Target — объявленная узлом ссылка на таблицу.
//
// Либо файловая (FileID, SheetName), либо виртуальная (VirtualID).
type Target struct {
	// FileID — идентификатор файла (0 для виртуальных ссылок).
	FileID int64 `json:"file_id"`

	// SheetName — имя листа; пустое значит __default__.
	SheetName string `json:"sheet_name"`

	// VirtualID — идентификатор виртуальной таблицы.
	VirtualID string `json:"virtual_id"`

	// IsFinalOutput — пометка "финальный выход" от редактора flow.
	IsFinalOutput bool `json:"is_final_output"`
}

// IsVirtual сообщает, виртуальная ли это ссылка.
func (t Target) IsVirtual() bool {
	return t.FileID == 0 && t.VirtualID != ""
}

// IsZero сообщает, пустая ли ссылка.
func (t Target) IsZero() bool {
	return t.FileID == 0 && t.VirtualID == ""
}

// Key возвращает ключ таблицы для ссылки.
func (t Target) Key() TableKey {
	if t.IsVirtual() {
		return VirtualKey(t.VirtualID)
	}
	return FileKey(t.FileID, t.SheetName)
}

// Describe возвращает человекочитаемое описание ссылки.
func (t Target) Describe() string {
	if t.IsVirtual() {
		return VirtualPrefix + t.VirtualID
	}
	sheet := t.SheetName
	if sheet == "" {
		sheet = DefaultSheet
	}
	return fmt.Sprintf("file %d, sheet %s", t.FileID, sheet)
}

// OutputSheet — лист выходного файла, объявленный output-узлом.
type OutputSheet struct {
	// OutputID — идентификатор выходного файла.
	OutputID string

	// FileName — имя выходного файла.
	FileName string

	// SheetName — имя листа.
	SheetName string

	// Source — legacy-ссылка на источник данных листа (может быть пустой).
	Source Target
}

// VirtualID возвращает идентификатор виртуальной таблицы листа.
// По этому ключу выполнение находит данные для листа.
func (o OutputSheet) VirtualID() string {
	return "output:" + o.OutputID + ":" + o.SheetName
}

// Node — типизированный узел flow после разбора.
type Node struct {
	// ID — идентификатор узла в документе.
	ID string

	// BlockType — тип преобразования (ключ в реестре).
	BlockType string

	// Config — параметры преобразования, непрозрачные для движка
	// за исключением ссылочных полей (lookupTarget, mappingTargets).
	Config map[string]any

	// FileIDs — прямой список файлов узла.
	FileIDs []int64

	// Sources — source targets (без нормализации).
	Sources []Target

	// Destinations — destination targets (без нормализации).
	Destinations []Target

	// LegacyTarget — устаревшее одиночное поле target.
	LegacyTarget Target

	// LegacyDestination — устаревшее одиночное поле destination.
	LegacyDestination Target

	// Lookup — ссылка на lookup-таблицу из config.
	Lookup Target

	// Mappings — ссылки на mapping-таблицы из config.
	Mappings []Target

	// OutputSheets — листы, объявленные output-узлом.
	OutputSheets []OutputSheet
}

// IsMarker сообщает, является ли узел маркером (не преобразованием).
func (n *Node) IsMarker() bool {
	return markerBlockTypes[n.BlockType]
}

// Document — типизированный flow-документ.
type Document struct {
	// Nodes — узлы в порядке выполнения.
	Nodes []Node
}

// ParseDocument разбирает нетипизированное JSON-дерево flow-документа.
//
// Некорректные формы (не тот тип, отсутствующий ключ) молча
// пропускаются: повреждённый узел не должен ронять весь flow.
func ParseDocument(raw map[string]any) *Document {
	doc := &Document{Nodes: make([]Node, 0)}
	if raw == nil {
		return doc
	}

	nodes, ok := raw["nodes"].([]any)
	if !ok {
		return doc
	}

	for _, n := range nodes {
		nodeMap, ok := n.(map[string]any)
		if !ok {
			continue
		}
		doc.Nodes = append(doc.Nodes, parseNode(nodeMap))
	}
	return doc
}

// parseNode разбирает один узел.
func parseNode(raw map[string]any) Node {
	node := Node{}
	node.ID, _ = raw["id"].(string)

	data, _ := raw["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	// blockType с fallback на type узла
	node.BlockType, _ = data["blockType"].(string)
	if node.BlockType == "" {
		node.BlockType, _ = raw["type"].(string)
	}

	node.Config, _ = data["config"].(map[string]any)
	node.FileIDs = parseIDList(data["fileIds"])
	node.Sources = parseTargetList(data["sourceTargets"])
	node.Destinations = parseTargetList(data["destinationTargets"])
	node.LegacyTarget = parseTarget(data["target"])
	node.LegacyDestination = parseTarget(data["destination"])

	if node.Config != nil {
		node.Lookup = parseTarget(node.Config["lookupTarget"])
		node.Mappings = parseTargetList(node.Config["mappingTargets"])
	}

	node.OutputSheets = parseOutputSheets(data["output"])
	return node
}

// parseTarget разбирает одну ссылку на таблицу.
// Некорректная форма даёт пустую ссылку.
func parseTarget(raw any) Target {
	m, ok := raw.(map[string]any)
	if !ok {
		return Target{}
	}
	t := Target{}
	t.FileID = asID(m["fileId"])
	t.SheetName, _ = m["sheetName"].(string)
	t.VirtualID, _ = m["virtualId"].(string)
	t.IsFinalOutput, _ = m["isFinalOutput"].(bool)
	return t
}

// parseTargetList разбирает список ссылок, пропуская некорректные.
func parseTargetList(raw any) []Target {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	targets := make([]Target, 0, len(list))
	for _, item := range list {
		t := parseTarget(item)
		if !t.IsZero() {
			targets = append(targets, t)
		}
	}
	return targets
}

// parseIDList разбирает список идентификаторов файлов.
func parseIDList(raw any) []int64 {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(list))
	for _, v := range list {
		if id := asID(v); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// parseOutputSheets разбирает конфигурацию output-узла.
func parseOutputSheets(raw any) []OutputSheet {
	output, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	outputs, ok := output["outputs"].([]any)
	if !ok {
		return nil
	}

	sheets := make([]OutputSheet, 0)
	for i, o := range outputs {
		file, ok := o.(map[string]any)
		if !ok {
			continue
		}
		outputID, _ := file["id"].(string)
		if outputID == "" {
			outputID = fmt.Sprintf("output-%d", i+1)
		}
		fileName, _ := file["fileName"].(string)

		rawSheets, _ := file["sheets"].([]any)
		for _, s := range rawSheets {
			sheetMap, ok := s.(map[string]any)
			if !ok {
				continue
			}
			name, _ := sheetMap["sheetName"].(string)
			if name == "" {
				name = "Sheet 1"
			}
			sheets = append(sheets, OutputSheet{
				OutputID:  outputID,
				FileName:  fileName,
				SheetName: name,
				Source:    parseTarget(sheetMap["sourceTarget"]),
			})
		}
	}
	return sheets
}

// asID приводит JSON-значение к идентификатору файла.
// JSON-числа приходят как float64; нецелые и отрицательные
// значения считаются некорректными.
func asID(v any) int64 {
	switch n := v.(type) {
	case float64:
		id := int64(n)
		if float64(id) == n && id > 0 {
			return id
		}
	case int:
		if n > 0 {
			return int64(n)
		}
	case int64:
		if n > 0 {
			return n
		}
	}
	return 0
}

// normalizeTargets приводит legacy-поля узла к каноническому виду.
//
// Чистая функция: (legacy поля) → (sources, destinations).
//   - одиночные target/destination заменяют пустые списки;
//   - пустые destinations наследуют sources;
//   - пустые sources наследуют destinations.
//
// Трёхвариантная развязка по кардинальности в executor.go работает
// уже с канонической формой.
func normalizeTargets(n *Node) (sources, destinations []Target) {
	sources = n.Sources
	if len(sources) == 0 && !n.LegacyTarget.IsZero() {
		sources = []Target{n.LegacyTarget}
	}

	destinations = n.Destinations
	if len(destinations) == 0 && !n.LegacyDestination.IsZero() {
		destinations = []Target{n.LegacyDestination}
	}

	if len(destinations) == 0 {
		destinations = sources
	}
	if len(sources) == 0 && len(destinations) > 0 {
		sources = destinations
	}
	return sources, destinations
}
