package balance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultClassSuffix marks the classification column paired with a warehouse.
const DefaultClassSuffix = ".1"

// ErrMissingBaseColumn is returned when the header lacks one of the identity columns.
var ErrMissingBaseColumn = errors.New("missing base column")

// SchemaConfig names the identity columns and the classification suffix.
type SchemaConfig struct {
	CodeColumn        string
	KeyColumn         string
	DescriptionColumn string
	ClassSuffix       string
}

// DefaultSchemaConfig matches the standard balance export header.
func DefaultSchemaConfig() SchemaConfig {
	return SchemaConfig{
		CodeColumn:        "Codigo",
		KeyColumn:         "Clave",
		DescriptionColumn: "Descripcion",
		ClassSuffix:       DefaultClassSuffix,
	}
}

// WithDefaults fills unset column names from DefaultSchemaConfig.
func (c SchemaConfig) WithDefaults() SchemaConfig {
	def := DefaultSchemaConfig()
	if c.CodeColumn == "" {
		c.CodeColumn = def.CodeColumn
	}
	if c.KeyColumn == "" {
		c.KeyColumn = def.KeyColumn
	}
	if c.DescriptionColumn == "" {
		c.DescriptionColumn = def.DescriptionColumn
	}
	if c.ClassSuffix == "" {
		c.ClassSuffix = def.ClassSuffix
	}
	return c
}

func (c SchemaConfig) isBase(col string) bool {
	return col == c.CodeColumn || col == c.KeyColumn || col == c.DescriptionColumn
}

// Schema is the resolved column layout of a snapshot.
type Schema struct {
	Config     SchemaConfig
	Warehouses []Warehouse
	index      map[string]int
}

// ResolveSchema derives the warehouse set from a header. Every column that is
// neither a base column nor suffixed is a warehouse; warehouses are sorted by
// name and paired with "<name><suffix>" when that column exists.
func ResolveSchema(columns []string, cfg SchemaConfig) Schema {
	cfg = cfg.WithDefaults()

	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, seen := index[col]; !seen {
			index[col] = i
		}
	}

	var names []string
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col] || cfg.isBase(col) || strings.HasSuffix(col, cfg.ClassSuffix) {
			continue
		}
		seen[col] = true
		names = append(names, col)
	}
	sort.Strings(names)

	warehouses := make([]Warehouse, 0, len(names))
	for _, name := range names {
		w := Warehouse{Name: name}
		if _, ok := index[name+cfg.ClassSuffix]; ok {
			w.ClassColumn = name + cfg.ClassSuffix
		}
		warehouses = append(warehouses, w)
	}

	return Schema{Config: cfg, Warehouses: warehouses, index: index}
}

// Column returns the position of a column in the header.
func (s Schema) Column(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// BuildDataset resolves the schema of header and converts rows into records.
// Short rows read as empty cells. Only a missing base column is an error;
// malformed cells silently coerce to 0 or "".
func BuildDataset(header []string, rows [][]string, cfg SchemaConfig) (*Dataset, error) {
	schema := ResolveSchema(header, cfg)
	cfg = schema.Config

	codeIdx, ok := schema.Column(cfg.CodeColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBaseColumn, cfg.CodeColumn)
	}
	keyIdx, ok := schema.Column(cfg.KeyColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBaseColumn, cfg.KeyColumn)
	}
	descIdx, ok := schema.Column(cfg.DescriptionColumn)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBaseColumn, cfg.DescriptionColumn)
	}

	type pair struct {
		name     string
		inv, cls int
	}
	pairs := make([]pair, len(schema.Warehouses))
	for i, w := range schema.Warehouses {
		p := pair{name: w.Name, cls: -1}
		p.inv, _ = schema.Column(w.Name)
		if w.HasClass() {
			p.cls, _ = schema.Column(w.ClassColumn)
		}
		pairs[i] = p
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		rec := Record{
			Code:        strings.TrimSpace(cell(row, codeIdx)),
			Key:         strings.TrimSpace(cell(row, keyIdx)),
			Description: strings.TrimSpace(cell(row, descIdx)),
			Quantities:  make(map[string]int, len(pairs)),
			Classes:     make(map[string]string, len(pairs)),
		}
		for _, p := range pairs {
			rec.Quantities[p.name] = ParseQuantity(cell(row, p.inv))
			if p.cls >= 0 {
				rec.Classes[p.name] = NormalizeClass(cell(row, p.cls))
			}
		}
		records = append(records, rec)
	}

	return &Dataset{Warehouses: schema.Warehouses, Records: records}, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
