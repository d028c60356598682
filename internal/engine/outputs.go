package engine

// OutputInfo — один выход flow.
type OutputInfo struct {
	// Target — ссылка на таблицу выхода.
	Target Target `json:"target"`

	// Key — ключ таблицы.
	Key TableKey `json:"key"`

	// Descriptor — человекочитаемое описание.
	Descriptor string `json:"descriptor"`

	// IsFinalOutput — помечен ли выход как финальный.
	IsFinalOutput bool `json:"is_final_output"`
}

// ListOutputs перечисляет выходы flow-документа:
// приёмники всех узлов-преобразований и листы output-узлов.
//
// Дубликаты схлопываются по ключу таблицы (признак финальности —
// логическое ИЛИ), порядок следует первому появлению в документе.
func ListOutputs(raw map[string]any) []OutputInfo {
	doc := ParseDocument(raw)

	outputs := make([]OutputInfo, 0)
	index := make(map[TableKey]int)

	add := func(t Target) {
		key := t.Key()
		if i, ok := index[key]; ok {
			outputs[i].IsFinalOutput = outputs[i].IsFinalOutput || t.IsFinalOutput
			return
		}
		index[key] = len(outputs)
		outputs = append(outputs, OutputInfo{
			Target:        t,
			Key:           key,
			Descriptor:    t.Describe(),
			IsFinalOutput: t.IsFinalOutput,
		})
	}

	for i := range doc.Nodes {
		node := &doc.Nodes[i]

		// Листы output-узлов — виртуальные таблицы, всегда финальные
		for _, sheet := range node.OutputSheets {
			add(Target{VirtualID: sheet.VirtualID(), IsFinalOutput: true})
		}

		if node.IsMarker() {
			continue
		}
		_, destinations := normalizeTargets(node)
		for _, dst := range destinations {
			add(dst)
		}
	}
	return outputs
}
