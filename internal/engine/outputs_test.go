package engine

import "testing"

// --- ListOutputs Tests ---

func TestListOutputs_CollectsDestinations(t *testing.T) {
	doc := docOf(
		transformNode("n1", "filter_rows", nil,
			[]any{fileTarget(1)},
			[]any{virtTarget("step1")},
		),
		transformNode("n2", "sort_rows", nil,
			[]any{virtTarget("step1")},
			[]any{map[string]any{"virtualId": "final", "isFinalOutput": true}},
		),
	)

	outputs := ListOutputs(doc)
	if len(outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outputs))
	}
	if outputs[0].Key != VirtualKey("step1") || outputs[0].IsFinalOutput {
		t.Errorf("unexpected first output: %+v", outputs[0])
	}
	if outputs[1].Key != VirtualKey("final") || !outputs[1].IsFinalOutput {
		t.Errorf("unexpected second output: %+v", outputs[1])
	}
}

func TestListOutputs_OutputSheetsAlwaysFinal(t *testing.T) {
	doc := docOf(
		map[string]any{"id": "o1", "data": map[string]any{
			"blockType": "output",
			"output": map[string]any{
				"outputs": []any{
					map[string]any{
						"id":       "exp1",
						"fileName": "report.xlsx",
						"sheets": []any{
							map[string]any{
								"sheetName":    "Main",
								"sourceTarget": virtTarget("step2"),
							},
						},
					},
				},
			},
		}},
	)

	outputs := ListOutputs(doc)
	if len(outputs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(outputs))
	}
	out := outputs[0]
	if out.Key != VirtualKey("output:exp1:Main") {
		t.Errorf("unexpected key: %s", out.Key)
	}
	if !out.IsFinalOutput {
		t.Error("output sheets must be final")
	}
}

func TestListOutputs_DeduplicatesByKey(t *testing.T) {
	doc := docOf(
		transformNode("n1", "filter_rows", nil,
			[]any{fileTarget(1)},
			[]any{virtTarget("shared")},
		),
		// Второй узел пишет в тот же ключ — с признаком финальности
		transformNode("n2", "sort_rows", nil,
			[]any{fileTarget(2)},
			[]any{map[string]any{"virtualId": "shared", "isFinalOutput": true}},
		),
	)

	outputs := ListOutputs(doc)
	if len(outputs) != 1 {
		t.Fatalf("expected deduplication, got %d outputs", len(outputs))
	}
	// Признак финальности — логическое ИЛИ по всем вхождениям
	if !outputs[0].IsFinalOutput {
		t.Error("final flag must survive deduplication")
	}
}

func TestListOutputs_SkipsMarkerDestinations(t *testing.T) {
	doc := docOf(
		map[string]any{"id": "u1", "data": map[string]any{
			"blockType":          "upload",
			"destinationTargets": []any{virtTarget("phantom")},
		}},
	)

	outputs := ListOutputs(doc)
	if len(outputs) != 0 {
		t.Errorf("marker node destinations must be ignored, got %v", outputs)
	}
}

func TestListOutputs_EmptyDocument(t *testing.T) {
	if got := ListOutputs(map[string]any{}); len(got) != 0 {
		t.Errorf("expected no outputs, got %v", got)
	}
}
