package registration

import (
	"fmt"
	"regexp"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Stores
const (
	StoreCSV      StoreKind = "csv"
	StoreDocument StoreKind = "document"
)

// Team rules
const (
	TeamNone            TeamRule = "none"
	TeamBySize          TeamRule = "size"
	TeamByParticipation TeamRule = "participation"
)

// Upload rules
const (
	UploadNone     UploadRule = "none"
	UploadOptional UploadRule = "optional"
	UploadRequired UploadRule = "required"
)

type (
	StoreKind  string
	TeamRule   string
	UploadRule string

	// EventSchema describes one event's registration form and where it is stored.
	EventSchema struct {
		Name           string     `toml:"name" json:"name"`
		Title          string     `toml:"title" json:"title"`
		Store          StoreKind  `toml:"store" json:"-"`
		Collection     string     `toml:"collection" json:"-"`
		Columns        []string   `toml:"columns" json:"-"`
		Required       []string   `toml:"required" json:"required"`
		RollFields     []string   `toml:"rollFields" json:"-"`
		Team           TeamRule   `toml:"team" json:"team"`
		Upload         UploadRule `toml:"upload" json:"upload"`
		PhonePattern   string     `toml:"phonePattern" json:"-"`
		CheckConflicts bool       `toml:"checkConflicts" json:"-"`
		Open           bool       `toml:"open" json:"open"`

		phoneRegex *regexp.Regexp
	}

	// Catalog holds every known event schema, in declaration order.
	Catalog struct {
		schemas map[string]*EventSchema
		order   []string
	}

	catalogFile struct {
		Events []*EventSchema `toml:"events"`
	}
)

// LoadCatalog parses a TOML document made of [[events]] tables.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "decoding events")
	}
	cat := &Catalog{schemas: make(map[string]*EventSchema, len(file.Events))}
	for _, schema := range file.Events {
		if err := cat.add(schema); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// Merge adds or replaces schemas with the ones declared in data.
func (cat *Catalog) Merge(data []byte) error {
	other, err := LoadCatalog(data)
	if err != nil {
		return err
	}
	for _, name := range other.order {
		if err := cat.add(other.schemas[name]); err != nil {
			return err
		}
	}
	return nil
}

func (cat *Catalog) add(schema *EventSchema) error {
	if err := schema.prepare(); err != nil {
		return errors.Wrapf(err, "event %q", schema.Name)
	}
	if _, ok := cat.schemas[schema.Name]; !ok {
		cat.order = append(cat.order, schema.Name)
	}
	cat.schemas[schema.Name] = schema
	return nil
}

// Get returns the named schema or ErrEventNotFound.
func (cat *Catalog) Get(name string) (*EventSchema, error) {
	if schema, ok := cat.schemas[name]; ok {
		return schema, nil
	}
	return nil, ErrEventNotFound
}

func (cat *Catalog) All() []*EventSchema {
	all := make([]*EventSchema, 0, len(cat.order))
	for _, name := range cat.order {
		all = append(all, cat.schemas[name])
	}
	return all
}

// Close marks the named events as closed. Unknown names are ignored.
func (cat *Catalog) Close(names ...string) {
	for _, name := range names {
		if schema, ok := cat.schemas[name]; ok {
			schema.Open = false
		}
	}
}

func (schema *EventSchema) prepare() error {
	if schema.Name == "" {
		return errors.New("name is required")
	}
	if schema.Title == "" {
		schema.Title = schema.Name
	}
	if schema.Collection == "" {
		schema.Collection = schema.Name + "-submissions"
	}
	if schema.Team == "" {
		schema.Team = TeamNone
	}
	if schema.Upload == "" {
		schema.Upload = UploadNone
	}

	switch schema.Store {
	case StoreCSV, StoreDocument:
	default:
		return fmt.Errorf("unknown store %q", schema.Store)
	}
	switch schema.Team {
	case TeamNone, TeamBySize, TeamByParticipation:
	default:
		return fmt.Errorf("unknown team rule %q", schema.Team)
	}
	switch schema.Upload {
	case UploadNone, UploadOptional, UploadRequired:
	default:
		return fmt.Errorf("unknown upload rule %q", schema.Upload)
	}

	if len(schema.Columns) == 0 {
		return errors.New("columns are required")
	}
	for _, f := range append(append([]string{}, schema.Required...), schema.RollFields...) {
		if !schema.HasColumn(f) {
			return fmt.Errorf("field %q is not a column", f)
		}
	}
	if schema.Upload != UploadNone && !(schema.HasColumn(ColPaymentProofFile) && schema.HasColumn(ColPaymentProofType)) {
		return errors.New("upload events need paymentProofFile and paymentProofType columns")
	}

	if schema.PhonePattern != "" {
		re, err := regexp.Compile(schema.PhonePattern)
		if err != nil {
			return errors.Wrap(err, "compiling phone pattern")
		}
		schema.phoneRegex = re
	}
	return nil
}

func (schema *EventSchema) HasColumn(col string) bool {
	for _, c := range schema.Columns {
		if c == col {
			return true
		}
	}
	return false
}
