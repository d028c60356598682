package engine

import (
	"encoding/json"
	"testing"
)

// fullDoc строит документ, задействующий все места ссылок на файлы.
func fullDoc() map[string]any {
	return map[string]any{
		"nodes": []any{
			map[string]any{
				"id": "n1",
				"data": map[string]any{
					"blockType": "filter_rows",
					"fileIds":   []any{float64(1), float64(2)},
					"sourceTargets": []any{
						map[string]any{"fileId": float64(3), "sheetName": "S1"},
					},
					"destinationTargets": []any{
						map[string]any{"fileId": float64(4)},
					},
					"target":      map[string]any{"fileId": float64(5)},
					"destination": map[string]any{"fileId": float64(6)},
					"config": map[string]any{
						"lookupTarget": map[string]any{"fileId": float64(7)},
						"mappingTargets": []any{
							map[string]any{"fileId": float64(8)},
						},
					},
				},
			},
			map[string]any{
				"id": "n2",
				"data": map[string]any{
					"blockType": "output",
					"output": map[string]any{
						"outputs": []any{
							map[string]any{
								"id": "o1",
								"sheets": []any{
									map[string]any{
										"sheetName":    "Report",
										"sourceTarget": map[string]any{"fileId": float64(9)},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

// --- ExtractFileIDs Tests ---

func TestExtractFileIDs_AllSites(t *testing.T) {
	ids := ExtractFileIDs(fullDoc())

	for want := int64(1); want <= 9; want++ {
		if _, ok := ids[want]; !ok {
			t.Errorf("expected id %d in extracted set", want)
		}
	}
	if len(ids) != 9 {
		t.Errorf("expected 9 ids, got %d", len(ids))
	}
}

func TestExtractFileIDs_MalformedShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{"nil document", nil},
		{"nodes not a list", map[string]any{"nodes": "oops"}},
		{"node not a map", map[string]any{"nodes": []any{"oops"}}},
		{"data not a map", map[string]any{"nodes": []any{
			map[string]any{"data": 42},
		}}},
		{"fileIds with junk", map[string]any{"nodes": []any{
			map[string]any{"data": map[string]any{
				"fileIds": []any{"ten", true, float64(-1), float64(1.5)},
			}},
		}}},
		{"target wrong type", map[string]any{"nodes": []any{
			map[string]any{"data": map[string]any{
				"target": []any{1},
				"config": map[string]any{"lookupTarget": "x"},
			}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := ExtractFileIDs(tt.doc)
			if len(ids) != 0 {
				t.Errorf("expected no ids, got %v", ids)
			}
		})
	}
}

func TestExtractFileIDs_StableUnderKeyOrder(t *testing.T) {
	// Один документ, прогнанный через JSON-кодек: порядок ключей
	// в map не влияет на результат
	raw, err := json.Marshal(fullDoc())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	a := ExtractFileIDs(fullDoc())
	b := ExtractFileIDs(decoded)
	if len(a) != len(b) {
		t.Fatalf("sets differ: %v vs %v", a, b)
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			t.Errorf("id %d missing after roundtrip", id)
		}
	}
}

// --- RemoveFileID Tests ---

func TestRemoveFileID_StripsEverySite(t *testing.T) {
	for id := int64(1); id <= 9; id++ {
		doc, changed := RemoveFileID(fullDoc(), id)
		if !changed {
			t.Errorf("id %d: expected changed=true", id)
		}
		if _, ok := ExtractFileIDs(doc)[id]; ok {
			t.Errorf("id %d still referenced after removal", id)
		}
	}
}

func TestRemoveFileID_AbsentID(t *testing.T) {
	doc, changed := RemoveFileID(fullDoc(), 99)
	if changed {
		t.Error("absent id must report changed=false")
	}
	if len(ExtractFileIDs(doc)) != 9 {
		t.Error("document must stay unchanged")
	}
}

func TestRemoveFileID_DoesNotMutateOriginal(t *testing.T) {
	orig := fullDoc()
	_, _ = RemoveFileID(orig, 3)

	if _, ok := ExtractFileIDs(orig)[3]; !ok {
		t.Error("original document must not be mutated")
	}
}

func TestRemoveFileID_NullsNotDrops(t *testing.T) {
	// Ссылочные поля обнуляются, а не исчезают: структура узла
	// остаётся валидной для редактора
	doc, _ := RemoveFileID(fullDoc(), 5)

	nodes := doc["nodes"].([]any)
	data := nodes[0].(map[string]any)["data"].(map[string]any)
	target, ok := data["target"].(map[string]any)
	if !ok {
		t.Fatal("target field must survive removal")
	}
	if target["fileId"] != nil {
		t.Errorf("expected nulled fileId, got %v", target["fileId"])
	}
}

func TestRemoveFileID_DropsFromIDList(t *testing.T) {
	doc, _ := RemoveFileID(fullDoc(), 1)

	nodes := doc["nodes"].([]any)
	data := nodes[0].(map[string]any)["data"].(map[string]any)
	list := data["fileIds"].([]any)
	if len(list) != 1 || asID(list[0]) != 2 {
		t.Errorf("expected fileIds=[2], got %v", list)
	}
}
