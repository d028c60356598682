package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shaiso/Flowsheet/internal/table"
	"github.com/shaiso/Flowsheet/internal/transforms"
)

// Loader — коллаборатор, загружающий таблицы из файлов.
type Loader interface {
	// Parse читает таблицу из файла. Пустой sheet — лист по умолчанию.
	Parse(path, sheet string) (*table.Table, error)

	// ListSheets возвращает имена листов файла
	// (пусто для форматов без листов, например CSV).
	ListSheets(path string) ([]string, error)
}

// TableMap — карта таблиц одного выполнения.
//
// Строится лениво (загрузка при первом обращении) и мутируется
// по мере выполнения узлов. Живёт в рамках одного вызова Execute,
// между вызовами ничего не разделяется.
type TableMap map[TableKey]*table.Table

// Result — результат выполнения flow.
type Result struct {
	// Tables — карта таблиц после выполнения всех узлов.
	Tables TableMap

	// LastKey — ключ последней записанной таблицы ("" — записей не было).
	LastKey TableKey

	// TerminalKeys — ключи таблиц, которые не читает ни один
	// последующий узел: кандидаты в финальные выходы flow.
	// Отсортированы для детерминизма.
	TerminalKeys []TableKey
}

// Engine — движок выполнения flow.
//
// Однопроходный: узлы выполняются в порядке документа, без
// повторных посещений. Каждый вызов Execute владеет собственной
// картой таблиц, поэтому параллельные выполнения не требуют
// координации.
type Engine struct {
	registry *transforms.Registry
	loader   Loader
	logger   *slog.Logger
}

// New создаёт новый Engine.
func New(registry *transforms.Registry, loader Loader, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry: registry,
		loader:   loader,
		logger:   logger,
	}
}

// execState — состояние одного вызова Execute.
type execState struct {
	filePaths map[int64]string
	tables    TableMap
	initial   map[TableKey]bool // загружено с диска
	consumed  map[TableKey]bool // прочитано как источник
	last      TableKey
}

// Execute выполняет flow-документ над поданными файлами.
//
// filePaths — пути к файлам по их идентификаторам.
// Ошибка преобразования после пройденной валидации фатальна для
// всего вызова: карта таблиц в этом случае невосстановима.
func (e *Engine) Execute(ctx context.Context, filePaths map[int64]string, raw map[string]any) (*Result, error) {
	doc := ParseDocument(raw)

	st := &execState{
		filePaths: filePaths,
		tables:    make(TableMap),
		initial:   make(map[TableKey]bool),
		consumed:  make(map[TableKey]bool),
	}

	for i := range doc.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.runNode(st, &doc.Nodes[i]); err != nil {
			return nil, err
		}
	}

	return &Result{
		Tables:       st.tables,
		LastKey:      st.last,
		TerminalKeys: st.terminalKeys(),
	}, nil
}

// runNode выполняет один узел.
func (e *Engine) runNode(st *execState, node *Node) error {
	// Маркеры (source/output/mapping) описывают структуру, не данные
	if node.IsMarker() {
		return nil
	}

	tr, err := e.registry.Get(node.BlockType)
	if err != nil {
		// Неизвестный тип блока — пропускаем узел, не роняем flow
		e.logger.Debug("skipping node with unknown block type",
			"node_id", node.ID,
			"block_type", node.BlockType,
		)
		return nil
	}

	cfg, err := e.resolveConfig(st, node)
	if err != nil {
		return err
	}

	sources, destinations := normalizeTargets(node)

	switch {
	case len(sources) > 0 && len(sources) == len(destinations):
		return e.runPairwise(st, node, tr, cfg, sources, destinations)

	case len(sources) > len(destinations) && len(destinations) >= 1:
		return e.runAppend(st, node, tr, cfg, sources, destinations)

	case len(sources) == 1 && len(destinations) > 1:
		return e.runBroadcast(st, node, tr, cfg, sources[0], destinations)

	default:
		// Прочие сочетания кардинальностей — no-op для узла
		e.logger.Debug("skipping node with unresolvable wiring",
			"node_id", node.ID,
			"sources", len(sources),
			"destinations", len(destinations),
		)
		return nil
	}
}

// resolveConfig разрешает ссылочные поля конфигурации.
//
// Lookup- и mapping-таблицы загружаются до выполнения: это входы
// преобразования, fan-out их не касается.
func (e *Engine) resolveConfig(st *execState, node *Node) (transforms.Config, error) {
	cfg := make(transforms.Config, len(node.Config)+2)
	for k, v := range node.Config {
		cfg[k] = v
	}

	if !node.Lookup.IsZero() {
		tbl, err := e.load(st, node.Lookup)
		if err != nil {
			return nil, NewExecError(node.ID, node.BlockType, string(node.Lookup.Key()), err)
		}
		st.consumed[node.Lookup.Key()] = true
		cfg[transforms.ConfigLookupTable] = tbl
	}

	if len(node.Mappings) > 0 {
		mapped := make([]*table.Table, 0, len(node.Mappings))
		for _, m := range node.Mappings {
			tbl, err := e.load(st, m)
			if err != nil {
				return nil, NewExecError(node.ID, node.BlockType, string(m.Key()), err)
			}
			st.consumed[m.Key()] = true
			mapped = append(mapped, tbl)
		}
		cfg[transforms.ConfigMappingTables] = mapped
	}

	return cfg, nil
}

// runPairwise — режим 1:1 — источники и приёмники поэлементно.
func (e *Engine) runPairwise(st *execState, node *Node, tr transforms.Transform, cfg transforms.Config, sources, destinations []Target) error {
	for i := range sources {
		src, dst := sources[i], destinations[i]

		tbl, err := e.load(st, src)
		if err != nil {
			return NewExecError(node.ID, node.BlockType, string(src.Key()), err)
		}
		st.consumed[src.Key()] = true

		if !tr.Validate(tbl, cfg) {
			// Валидация — ворота: узел пропускается для этого входа,
			// приёмник не перезаписывается
			e.logger.Debug("validation skip",
				"node_id", node.ID,
				"block_type", node.BlockType,
				"source", string(src.Key()),
			)
			continue
		}

		out, err := tr.Execute(tbl, cfg)
		if err != nil {
			return NewExecError(node.ID, node.BlockType, string(src.Key()),
				fmt.Errorf("%w: %w", ErrTransformFailed, err))
		}
		st.write(dst, out)
	}
	return nil
}

// runAppend — режим N:1 — каждый источник выполняется отдельно,
// успешные результаты соединяются построчно и записываются
// в каждый приёмник.
func (e *Engine) runAppend(st *execState, node *Node, tr transforms.Transform, cfg transforms.Config, sources, destinations []Target) error {
	parts := make([]*table.Table, 0, len(sources))

	// Порядок соединения следует порядку source targets
	for _, src := range sources {
		tbl, err := e.load(st, src)
		if err != nil {
			return NewExecError(node.ID, node.BlockType, string(src.Key()), err)
		}
		st.consumed[src.Key()] = true

		if !tr.Validate(tbl, cfg) {
			e.logger.Debug("validation skip",
				"node_id", node.ID,
				"block_type", node.BlockType,
				"source", string(src.Key()),
			)
			continue
		}

		out, err := tr.Execute(tbl, cfg)
		if err != nil {
			return NewExecError(node.ID, node.BlockType, string(src.Key()),
				fmt.Errorf("%w: %w", ErrTransformFailed, err))
		}
		parts = append(parts, out)
	}

	if len(parts) == 0 {
		return nil
	}

	concat := table.Concat(parts...)
	for _, dst := range destinations {
		st.write(dst, concat.Copy())
	}
	return nil
}

// runBroadcast — режим 1:N — единственный источник выполняется один
// раз, копия результата записывается в каждый приёмник.
func (e *Engine) runBroadcast(st *execState, node *Node, tr transforms.Transform, cfg transforms.Config, src Target, destinations []Target) error {
	tbl, err := e.load(st, src)
	if err != nil {
		return NewExecError(node.ID, node.BlockType, string(src.Key()), err)
	}
	st.consumed[src.Key()] = true

	if !tr.Validate(tbl, cfg) {
		e.logger.Debug("validation skip",
			"node_id", node.ID,
			"block_type", node.BlockType,
			"source", string(src.Key()),
		)
		return nil
	}

	out, err := tr.Execute(tbl, cfg)
	if err != nil {
		return NewExecError(node.ID, node.BlockType, string(src.Key()),
			fmt.Errorf("%w: %w", ErrTransformFailed, err))
	}

	// Каждый приёмник получает независимую копию: последующие
	// преобразования одного выхода не должны влиять на другой
	for _, dst := range destinations {
		st.write(dst, out.Copy())
	}
	return nil
}

// load возвращает таблицу по ссылке, загружая её при первом обращении.
//
// На каждый ключ — не более одного разбора файла за выполнение.
// Неизвестный виртуальный ключ — пустая таблица (виртуальные
// таблицы с диска не загружаются). Файл без поданного пути — тоже
// пустая таблица: flow может ссылаться на уже удалённый файл.
func (e *Engine) load(st *execState, target Target) (*table.Table, error) {
	key := target.Key()
	if tbl, ok := st.tables[key]; ok {
		return tbl, nil
	}

	if target.IsVirtual() {
		return table.Empty(), nil
	}

	path, ok := st.filePaths[target.FileID]
	if !ok {
		e.logger.Warn("no path supplied for referenced file", "file_id", target.FileID)
		return table.Empty(), nil
	}

	sheet := target.SheetName
	if sheet == DefaultSheet {
		sheet = ""
	}
	tbl, err := e.loader.Parse(path, sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	st.tables[key] = tbl
	st.initial[key] = true
	return tbl, nil
}

// write записывает таблицу под ключ приёмника.
func (st *execState) write(dst Target, tbl *table.Table) {
	key := dst.Key()
	st.tables[key] = tbl
	st.last = key
}

// terminalKeys возвращает ключи без потребителей.
//
// Терминальный ключ присутствует в карте таблиц, но не входит
// ни в прочитанные источники, ни в загруженные входные файлы.
func (st *execState) terminalKeys() []TableKey {
	keys := make([]TableKey, 0)
	for key := range st.tables {
		if st.consumed[key] || st.initial[key] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
