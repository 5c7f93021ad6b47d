package model

import (
	"maps"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

// Catalog errors
var (
	ErrDuplicateLookup   = goerr.New("duplicate lookup entry")
	ErrInvalidLookup     = goerr.New("invalid lookup entry")
	ErrUnknownDefaultTLP = goerr.New("default TLP is not defined")
	ErrValueFormat       = goerr.New("The input doesn't match the expected format")
)

const validationTimeout = time.Second

// LookupEntry is a row of an id/name lookup table
type LookupEntry struct {
	ID          int64
	Name        string
	Description string
}

// IOCType is an enumerated IOC type. ValidationRegex, when set, must match every value of the
// type; it uses .NET/Python compatible syntax so patterns can carry lookarounds.
type IOCType struct {
	ID               int64
	Name             string
	Description      string
	ValidationRegex  string
	ValidationExpect string

	re *regexp2.Regexp
}

// Validate checks value against the type pattern
func (t IOCType) Validate(value string) error {
	if t.re == nil {
		return nil
	}
	ok, err := t.re.MatchString(value)
	if err != nil {
		return goerr.Wrap(err, "failed to evaluate IOC type pattern", goerr.V("type", t.Name))
	}
	if !ok {
		return goerr.Wrap(ErrValueFormat, "value does not match IOC type pattern",
			goerr.V("type", t.Name),
			goerr.V("expect", t.ValidationExpect))
	}
	return nil
}

// TLP is a Traffic Light Protocol classification
type TLP struct {
	ID      int64
	Name    string
	BgColor string
}

// CatalogSpec is the raw content of a catalog before validation
type CatalogSpec struct {
	IOCTypes          []IOCType
	TLPs              []TLP
	DefaultTLP        string
	AlertStatuses     []LookupEntry
	AlertSeverities   []LookupEntry
	DefaultAttributes map[types.ObjectType]map[string]any
}

// Catalog holds the lookup tables the application resolves names and ids against. It is
// immutable once built.
type Catalog struct {
	iocTypes          []IOCType
	tlps              []TLP
	defaultTLP        TLP
	alertStatuses     []LookupEntry
	alertSeverities   []LookupEntry
	defaultAttributes map[types.ObjectType]map[string]any
}

// NewCatalog validates spec and compiles the IOC type patterns
func NewCatalog(spec CatalogSpec) (*Catalog, error) {
	c := &Catalog{
		iocTypes:          make([]IOCType, len(spec.IOCTypes)),
		tlps:              append([]TLP(nil), spec.TLPs...),
		alertStatuses:     append([]LookupEntry(nil), spec.AlertStatuses...),
		alertSeverities:   append([]LookupEntry(nil), spec.AlertSeverities...),
		defaultAttributes: make(map[types.ObjectType]map[string]any),
	}

	ids := map[int64]bool{}
	names := map[string]bool{}
	for i, t := range spec.IOCTypes {
		if t.ID < 1 || t.Name == "" {
			return nil, goerr.Wrap(ErrInvalidLookup, "IOC type requires positive id and name", goerr.V("id", t.ID), goerr.V("name", t.Name))
		}
		key := strings.ToLower(t.Name)
		if ids[t.ID] || names[key] {
			return nil, goerr.Wrap(ErrDuplicateLookup, "duplicate IOC type", goerr.V("id", t.ID), goerr.V("name", t.Name))
		}
		ids[t.ID], names[key] = true, true

		if t.ValidationRegex != "" {
			re, err := regexp2.Compile(t.ValidationRegex, regexp2.None)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid IOC type pattern", goerr.V("name", t.Name), goerr.V("pattern", t.ValidationRegex))
			}
			re.MatchTimeout = validationTimeout
			t.re = re
		}
		c.iocTypes[i] = t
	}

	if err := checkLookup("TLP", tlpEntries(spec.TLPs)); err != nil {
		return nil, err
	}
	if err := checkLookup("alert status", spec.AlertStatuses); err != nil {
		return nil, err
	}
	if err := checkLookup("alert severity", spec.AlertSeverities); err != nil {
		return nil, err
	}

	tlp, ok := c.TLPByName(spec.DefaultTLP)
	if !ok {
		return nil, goerr.Wrap(ErrUnknownDefaultTLP, "failed to resolve default TLP", goerr.V("name", spec.DefaultTLP))
	}
	c.defaultTLP = tlp

	for obj, attrs := range spec.DefaultAttributes {
		if !obj.IsValid() {
			return nil, goerr.Wrap(ErrInvalidLookup, "unknown object type for default attributes", goerr.V("object", obj))
		}
		c.defaultAttributes[obj] = maps.Clone(attrs)
	}

	return c, nil
}

func tlpEntries(tlps []TLP) []LookupEntry {
	out := make([]LookupEntry, len(tlps))
	for i, t := range tlps {
		out[i] = LookupEntry{ID: t.ID, Name: t.Name}
	}
	return out
}

func checkLookup(kind string, entries []LookupEntry) error {
	ids := map[int64]bool{}
	names := map[string]bool{}
	for _, e := range entries {
		if e.ID < 1 || e.Name == "" {
			return goerr.Wrap(ErrInvalidLookup, kind+" requires positive id and name", goerr.V("id", e.ID), goerr.V("name", e.Name))
		}
		key := strings.ToLower(e.Name)
		if ids[e.ID] || names[key] {
			return goerr.Wrap(ErrDuplicateLookup, "duplicate "+kind, goerr.V("id", e.ID), goerr.V("name", e.Name))
		}
		ids[e.ID], names[key] = true, true
	}
	return nil
}

// IOCTypes returns every IOC type
func (c *Catalog) IOCTypes() []IOCType {
	return append([]IOCType(nil), c.iocTypes...)
}

// IOCTypeByName resolves an IOC type name, ignoring case
func (c *Catalog) IOCTypeByName(name string) (IOCType, bool) {
	for _, t := range c.iocTypes {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return IOCType{}, false
}

func (c *Catalog) IOCTypeByID(id int64) (IOCType, bool) {
	for _, t := range c.iocTypes {
		if t.ID == id {
			return t, true
		}
	}
	return IOCType{}, false
}

func (c *Catalog) TLPs() []TLP {
	return append([]TLP(nil), c.tlps...)
}

// TLPByName resolves a TLP name, ignoring case
func (c *Catalog) TLPByName(name string) (TLP, bool) {
	for _, t := range c.tlps {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return TLP{}, false
}

func (c *Catalog) TLPByID(id int64) (TLP, bool) {
	for _, t := range c.tlps {
		if t.ID == id {
			return t, true
		}
	}
	return TLP{}, false
}

// DefaultTLP is applied to IOCs created without a TLP
func (c *Catalog) DefaultTLP() TLP {
	return c.defaultTLP
}

func (c *Catalog) AlertStatuses() []LookupEntry {
	return append([]LookupEntry(nil), c.alertStatuses...)
}

func (c *Catalog) AlertStatusByID(id int64) (LookupEntry, bool) {
	return lookupByID(c.alertStatuses, id)
}

func (c *Catalog) AlertSeverities() []LookupEntry {
	return append([]LookupEntry(nil), c.alertSeverities...)
}

func (c *Catalog) AlertSeverityByID(id int64) (LookupEntry, bool) {
	return lookupByID(c.alertSeverities, id)
}

// DefaultAttributes returns a fresh copy of the default custom attributes of an object type
func (c *Catalog) DefaultAttributes(obj types.ObjectType) map[string]any {
	attrs, ok := c.defaultAttributes[obj]
	if !ok {
		return map[string]any{}
	}
	return deepCopyMap(attrs)
}

// IOCSchema describes the IOC payload. The TLP defaults to the catalog default TLP.
func (c *Catalog) IOCSchema() *Schema {
	return iocSchema.WithDefault("ioc_tlp_id", c.defaultTLP.ID)
}

var iocSchema = &Schema{
	Name: "ioc",
	Fields: []FieldSpec{
		{Name: "ioc_value", Type: types.FieldTypeText, Required: true, Rules: "min=1"},
		{Name: "ioc_type_id", Type: types.FieldTypeInteger, Required: true, Rules: "gt=0"},
		{Name: "ioc_tlp_id", Type: types.FieldTypeInteger, Rules: "gt=0"},
		{Name: "ioc_description", Type: types.FieldTypeText, Default: ""},
		{Name: "ioc_tags", Type: types.FieldTypeText, Default: "", Rules: "max=512"},
		{Name: "custom_attributes", Type: types.FieldTypeObject},
	},
}

func lookupByID(entries []LookupEntry, id int64) (LookupEntry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return LookupEntry{}, false
}

func deepCopyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if m, ok := v.(map[string]any); ok {
			dst[k] = deepCopyMap(m)
			continue
		}
		dst[k] = v
	}
	return dst
}

// DefaultCatalogSpec is the built-in catalog used when no catalog file is configured
func DefaultCatalogSpec() CatalogSpec {
	return CatalogSpec{
		IOCTypes: []IOCType{
			{ID: 1, Name: "ip", Description: "IPv4 or IPv6 address",
				ValidationRegex:  `^(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)$|^(?=.*:)[0-9a-fA-F:.]{2,45}$`,
				ValidationExpect: "an IPv4 or IPv6 address"},
			{ID: 2, Name: "domain", Description: "Domain name",
				ValidationRegex:  `^(?=.{1,253}$)(?!-)[A-Za-z0-9-]{1,63}(?<!-)(?:\.(?!-)[A-Za-z0-9-]{1,63}(?<!-))*\.?$`,
				ValidationExpect: "a domain name"},
			{ID: 3, Name: "url", Description: "URL"},
			{ID: 4, Name: "md5", Description: "MD5 hash",
				ValidationRegex: `^[a-fA-F0-9]{32}$`, ValidationExpect: "32 hexadecimal characters"},
			{ID: 5, Name: "sha1", Description: "SHA1 hash",
				ValidationRegex: `^[a-fA-F0-9]{40}$`, ValidationExpect: "40 hexadecimal characters"},
			{ID: 6, Name: "sha256", Description: "SHA256 hash",
				ValidationRegex: `^[a-fA-F0-9]{64}$`, ValidationExpect: "64 hexadecimal characters"},
			{ID: 7, Name: "email", Description: "Email address",
				ValidationRegex: `^[^@\s]+@[^@\s]+$`, ValidationExpect: "an email address"},
			{ID: 8, Name: "filename", Description: "File name"},
			{ID: 9, Name: "hostname", Description: "Host name"},
			{ID: 10, Name: "other", Description: "Any other indicator"},
		},
		TLPs: []TLP{
			{ID: 1, Name: "red", BgColor: "#ff0000"},
			{ID: 2, Name: "amber", BgColor: "#ffa500"},
			{ID: 3, Name: "green", BgColor: "#00ff00"},
			{ID: 4, Name: "clear", BgColor: "#ffffff"},
		},
		DefaultTLP: "amber",
		AlertStatuses: []LookupEntry{
			{ID: 1, Name: "Unspecified"},
			{ID: 2, Name: "New"},
			{ID: 3, Name: "Assigned"},
			{ID: 4, Name: "In progress"},
			{ID: 5, Name: "Pending"},
			{ID: 6, Name: "Closed"},
			{ID: 7, Name: "Merged"},
			{ID: 8, Name: "Escalated"},
		},
		AlertSeverities: []LookupEntry{
			{ID: 1, Name: "Unspecified"},
			{ID: 2, Name: "Informational"},
			{ID: 3, Name: "Low"},
			{ID: 4, Name: "Medium"},
			{ID: 5, Name: "High"},
			{ID: 6, Name: "Critical"},
		},
	}
}

// DefaultCatalog builds the built-in catalog
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultCatalogSpec())
	if err != nil {
		panic(err)
	}
	return c
}
