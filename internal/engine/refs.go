package engine

// Места, где flow-документ ссылается на файлы:
//   - data.fileIds                                — прямой список
//   - data.sourceTargets / data.destinationTargets
//   - data.target / data.destination              — legacy одиночные
//   - data.config.lookupTarget
//   - data.config.mappingTargets
//   - data.output.outputs[].sheets[].sourceTarget — legacy выходные листы
//
// Извлечение работает по сырому дереву, а не по ParseDocument:
// частично повреждённый узел всё ещё может содержать валидные
// ссылки, и их нельзя терять — иначе сборщик мусора удалит
// файл, на который flow ещё ссылается.

// ExtractFileIDs возвращает множество идентификаторов файлов,
// на которые ссылается flow-документ.
//
// Некорректные формы пропускаются, функция никогда не паникует.
func ExtractFileIDs(raw map[string]any) map[int64]struct{} {
	ids := make(map[int64]struct{})
	if raw == nil {
		return ids
	}

	nodes, ok := raw["nodes"].([]any)
	if !ok {
		return ids
	}

	for _, n := range nodes {
		nodeMap, ok := n.(map[string]any)
		if !ok {
			continue
		}
		data, ok := nodeMap["data"].(map[string]any)
		if !ok {
			continue
		}

		collectIDList(ids, data["fileIds"])
		collectTargetList(ids, data["sourceTargets"])
		collectTargetList(ids, data["destinationTargets"])
		collectTarget(ids, data["target"])
		collectTarget(ids, data["destination"])

		if config, ok := data["config"].(map[string]any); ok {
			collectTarget(ids, config["lookupTarget"])
			collectTargetList(ids, config["mappingTargets"])
		}

		collectOutputSources(ids, data["output"])
	}
	return ids
}

// collectIDList добавляет идентификаторы из прямого списка.
func collectIDList(ids map[int64]struct{}, raw any) {
	list, ok := raw.([]any)
	if !ok {
		return
	}
	for _, v := range list {
		if id := asID(v); id > 0 {
			ids[id] = struct{}{}
		}
	}
}

// collectTarget добавляет идентификатор из одной ссылки.
func collectTarget(ids map[int64]struct{}, raw any) {
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	if id := asID(m["fileId"]); id > 0 {
		ids[id] = struct{}{}
	}
}

// collectTargetList добавляет идентификаторы из списка ссылок.
func collectTargetList(ids map[int64]struct{}, raw any) {
	list, ok := raw.([]any)
	if !ok {
		return
	}
	for _, item := range list {
		collectTarget(ids, item)
	}
}

// collectOutputSources добавляет идентификаторы из legacy-ссылок
// выходных листов.
func collectOutputSources(ids map[int64]struct{}, raw any) {
	output, ok := raw.(map[string]any)
	if !ok {
		return
	}
	outputs, ok := output["outputs"].([]any)
	if !ok {
		return
	}
	for _, o := range outputs {
		file, ok := o.(map[string]any)
		if !ok {
			continue
		}
		sheets, ok := file["sheets"].([]any)
		if !ok {
			continue
		}
		for _, s := range sheets {
			sheetMap, ok := s.(map[string]any)
			if !ok {
				continue
			}
			collectTarget(ids, sheetMap["sourceTarget"])
		}
	}
}

// RemoveFileID удаляет файл из всех мест документа, где он упомянут.
//
// Возвращает отредактированную копию документа и признак изменения.
// Совпавшие ссылочные поля обнуляются (fileId → null), а не остаются
// указывающими на несуществующий файл; элементы fileIds удаляются.
// Исходный документ не изменяется.
func RemoveFileID(raw map[string]any, fileID int64) (map[string]any, bool) {
	if raw == nil {
		return nil, false
	}

	doc, ok := deepCopy(raw).(map[string]any)
	if !ok {
		return raw, false
	}

	changed := false
	nodes, ok := doc["nodes"].([]any)
	if !ok {
		return doc, false
	}

	for _, n := range nodes {
		nodeMap, ok := n.(map[string]any)
		if !ok {
			continue
		}
		data, ok := nodeMap["data"].(map[string]any)
		if !ok {
			continue
		}

		if stripIDList(data, "fileIds", fileID) {
			changed = true
		}
		if stripTargetList(data["sourceTargets"], fileID) {
			changed = true
		}
		if stripTargetList(data["destinationTargets"], fileID) {
			changed = true
		}
		if stripTarget(data["target"], fileID) {
			changed = true
		}
		if stripTarget(data["destination"], fileID) {
			changed = true
		}

		if config, ok := data["config"].(map[string]any); ok {
			if stripTarget(config["lookupTarget"], fileID) {
				changed = true
			}
			if stripTargetList(config["mappingTargets"], fileID) {
				changed = true
			}
		}

		if stripOutputSources(data["output"], fileID) {
			changed = true
		}
	}
	return doc, changed
}

// stripIDList удаляет идентификатор из прямого списка.
func stripIDList(data map[string]any, key string, fileID int64) bool {
	list, ok := data[key].([]any)
	if !ok {
		return false
	}
	kept := make([]any, 0, len(list))
	removed := false
	for _, v := range list {
		if asID(v) == fileID {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	if removed {
		data[key] = kept
	}
	return removed
}

// stripTarget обнуляет fileId ссылки при совпадении.
func stripTarget(raw any, fileID int64) bool {
	m, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	if asID(m["fileId"]) != fileID {
		return false
	}
	m["fileId"] = nil
	return true
}

// stripTargetList обнуляет совпавшие ссылки в списке.
func stripTargetList(raw any, fileID int64) bool {
	list, ok := raw.([]any)
	if !ok {
		return false
	}
	changed := false
	for _, item := range list {
		if stripTarget(item, fileID) {
			changed = true
		}
	}
	return changed
}

// stripOutputSources обнуляет совпавшие legacy-ссылки выходных листов.
func stripOutputSources(raw any, fileID int64) bool {
	output, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	outputs, ok := output["outputs"].([]any)
	if !ok {
		return false
	}
	changed := false
	for _, o := range outputs {
		file, ok := o.(map[string]any)
		if !ok {
			continue
		}
		sheets, ok := file["sheets"].([]any)
		if !ok {
			continue
		}
		for _, s := range sheets {
			if sheetMap, ok := s.(map[string]any); ok {
				if stripTarget(sheetMap["sourceTarget"], fileID) {
					changed = true
				}
			}
		}
	}
	return changed
}

// deepCopy рекурсивно копирует JSON-дерево.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(val))
		for k, item := range val {
			cp[k] = deepCopy(item)
		}
		return cp
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopy(item)
		}
		return cp
	default:
		return v
	}
}
